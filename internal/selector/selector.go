// Package selector walks a directory tree, applies the pattern set and file
// classifier, and produces the ordered selection result with aggregate
// statistics.
package selector

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/temirov/ingest/internal/classifier"
	"github.com/temirov/ingest/internal/matcher"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	// errorRootUnreadableFormat reports a fatal failure on the root path.
	errorRootUnreadableFormat = "reading root path %s: %w"
	// errorRootNotDirectoryFormat reports a root path that is not a directory.
	errorRootNotDirectoryFormat = "root path %s is not a directory"
	// errorNilChannelMessage reports a missing event channel.
	errorNilChannelMessage = "selector: event channel is nil"
)

// Options configures one selection pass.
type Options struct {
	Root       string
	Patterns   *matcher.PatternSet
	Classifier *classifier.Classifier
}

// Select runs the streaming walk through an errgroup producer/consumer pair
// and aggregates the events into a SelectionResult. The single producer and
// ordered channel keep the final ordering deterministic.
func Select(selectionContext context.Context, options Options) (types.SelectionResult, error) {
	result := types.SelectionResult{
		Root:       options.Root,
		Extensions: map[string]types.ExtensionStat{},
	}

	group, groupContext := errgroup.WithContext(selectionContext)
	events := make(chan Event)

	group.Go(func() error {
		defer close(events)
		return Stream(groupContext, options, events)
	})

	group.Go(func() error {
		for {
			select {
			case <-groupContext.Done():
				return groupContext.Err()
			case event, channelOpen := <-events:
				if !channelOpen {
					return nil
				}
				aggregateEvent(&result, event)
			}
		}
	})

	if groupError := group.Wait(); groupError != nil {
		return types.SelectionResult{}, groupError
	}

	sort.Slice(result.Included, func(firstIndex, secondIndex int) bool {
		return result.Included[firstIndex].RelativePath < result.Included[secondIndex].RelativePath
	})
	return result, nil
}

// aggregateEvent folds one event into the selection result. Statistics cover
// included files only.
func aggregateEvent(result *types.SelectionResult, event Event) {
	switch event.Kind {
	case EventKindRecord:
		if event.Record == nil {
			return
		}
		result.Included = append(result.Included, *event.Record)
		result.TotalFiles++
		result.TotalBytes += event.Record.SizeBytes
		extensionKey := histogramKey(event.Record.RelativePath)
		stat := result.Extensions[extensionKey]
		stat.Files++
		stat.Bytes += event.Record.SizeBytes
		result.Extensions[extensionKey] = stat
	case EventKindSkip:
		if event.Skip == nil {
			return
		}
		result.SkipNotes = append(result.SkipNotes, *event.Skip)
	}
}

// Stream walks the tree rooted at options.Root and emits one event per
// discovered regular file. A failure to read the root itself is fatal; every
// per-entry failure becomes a skip event and the walk continues.
func Stream(streamContext context.Context, options Options, out chan<- Event) error {
	if out == nil {
		return fmt.Errorf(errorNilChannelMessage)
	}
	rootInformation, rootStatError := os.Stat(options.Root)
	if rootStatError != nil {
		return fmt.Errorf(errorRootUnreadableFormat, options.Root, rootStatError)
	}
	if !rootInformation.IsDir() {
		return fmt.Errorf(errorRootNotDirectoryFormat, options.Root)
	}

	send := func(event Event) error {
		select {
		case <-streamContext.Done():
			return streamContext.Err()
		case out <- event:
			return nil
		}
	}

	walkError := filepath.WalkDir(options.Root, func(walkedPath string, directoryEntry fs.DirEntry, accessError error) error {
		relativePath := utils.RelativePathOrSelf(walkedPath, options.Root)

		if accessError != nil {
			if walkedPath == options.Root {
				return fmt.Errorf(errorRootUnreadableFormat, options.Root, accessError)
			}
			if sendError := send(skipEvent(relativePath, types.SkipReasonUnreadable)); sendError != nil {
				return sendError
			}
			if directoryEntry != nil && directoryEntry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if relativePath == "." {
			return nil
		}

		if directoryEntry.IsDir() {
			if options.Patterns.ExcludesDirectory(relativePath) {
				return filepath.SkipDir
			}
			return nil
		}

		return inspectEntry(walkedPath, relativePath, directoryEntry, options, send)
	})

	return walkError
}

// inspectEntry classifies a single non-directory entry and emits its event.
// Pattern exclusion is checked before any read so a pattern-excluded file
// produces exactly one skip note and is never opened.
func inspectEntry(
	walkedPath string,
	relativePath string,
	directoryEntry fs.DirEntry,
	options Options,
	send func(Event) error,
) error {
	if !options.Patterns.Matches(relativePath) {
		return send(skipEvent(relativePath, types.DecisionExcludedByPattern))
	}

	entryInformation, resolved, resolveError := resolveEntry(walkedPath, directoryEntry)
	if resolveError != nil {
		return send(skipEvent(relativePath, resolveError.reason))
	}
	if !resolved {
		// Symlink to a directory; never followed.
		return nil
	}

	sizeBytes := entryInformation.Size()

	var sample []byte
	if options.Classifier.NeedsSample(relativePath, sizeBytes) {
		sampleBytes, sampleError := utils.ReadSample(walkedPath)
		if sampleError != nil {
			return send(skipEvent(relativePath, types.SkipReasonUnreadable))
		}
		sample = sampleBytes
	}

	classification := options.Classifier.Classify(relativePath, sizeBytes, sample)
	record := types.FileRecord{
		RelativePath: relativePath,
		AbsolutePath: walkedPath,
		SizeBytes:    sizeBytes,
		IsBinary:     classification.IsBinary,
		LanguageHint: classification.LanguageHint,
		Decision:     classification.Decision,
	}

	if classification.Decision != types.DecisionIncluded {
		return send(skipEvent(relativePath, classification.Decision))
	}
	return send(Event{Kind: EventKindRecord, Record: &record})
}

type resolveFailure struct {
	reason string
}

func (failure *resolveFailure) Error() string {
	return failure.reason
}

// resolveEntry returns file information for the entry, following a symlink to
// its target. The boolean is false when the entry resolves to a directory.
func resolveEntry(walkedPath string, directoryEntry fs.DirEntry) (fs.FileInfo, bool, *resolveFailure) {
	if directoryEntry.Type()&fs.ModeSymlink != 0 {
		targetInformation, targetStatError := os.Stat(walkedPath)
		if targetStatError != nil {
			return nil, false, &resolveFailure{reason: types.SkipReasonBrokenSymlink}
		}
		if targetInformation.IsDir() {
			return nil, false, nil
		}
		return targetInformation, true, nil
	}

	entryInformation, informationError := directoryEntry.Info()
	if informationError != nil {
		return nil, false, &resolveFailure{reason: types.SkipReasonUnreadable}
	}
	if !entryInformation.Mode().IsRegular() {
		return nil, false, nil
	}
	return entryInformation, true, nil
}

func skipEvent(relativePath string, reason string) Event {
	return Event{Kind: EventKindSkip, Skip: &types.SkipNote{Path: relativePath, Reason: reason}}
}

// histogramKey derives the extension bucket: lowercase, no leading dot,
// ExtensionNone for extensionless files.
func histogramKey(relativePath string) string {
	extension := strings.ToLower(path.Ext(relativePath))
	if extension == "" {
		return types.ExtensionNone
	}
	return strings.TrimPrefix(extension, ".")
}
