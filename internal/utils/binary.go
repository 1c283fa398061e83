package utils

import (
	"io"
	"os"
)

// SampleLength defines the maximum number of bytes read when detecting binary content.
const SampleLength = 8192

// nonTextThreshold is the fraction of non-printable bytes above which a
// sample is considered binary.
const nonTextThreshold = 0.30

// IsBinary reports whether the provided byte sample appears to contain binary
// data. A sample is binary when it contains a NUL byte or when more than
// nonTextThreshold of its bytes fall outside the printable and whitespace set.
func IsBinary(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	nonTextCount := 0
	for _, byteValue := range sample {
		if byteValue == 0 {
			return true
		}
		if !isTextByte(byteValue) {
			nonTextCount++
		}
	}
	return float64(nonTextCount)/float64(len(sample)) > nonTextThreshold
}

// isTextByte reports whether the byte is printable ASCII, common whitespace,
// or part of a multi-byte UTF-8 sequence.
func isTextByte(byteValue byte) bool {
	switch byteValue {
	case '\t', '\n', '\r', '\f', '\v':
		return true
	}
	if byteValue >= 0x20 && byteValue < 0x7f {
		return true
	}
	return byteValue >= 0x80
}

// ReadSample reads up to SampleLength bytes from the start of the file at
// path. The file handle is scoped to this read and always released.
func ReadSample(path string) ([]byte, error) {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return nil, openError
	}
	defer fileHandle.Close()

	buffer := make([]byte, SampleLength)
	bytesRead, readError := io.ReadFull(fileHandle, buffer)
	if readError != nil && readError != io.EOF && readError != io.ErrUnexpectedEOF {
		return nil, readError
	}
	return buffer[:bytesRead], nil
}
