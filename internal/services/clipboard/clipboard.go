// Package clipboard delivers rendered ingest documents to the system clipboard.
package clipboard

import (
	"github.com/atotto/clipboard"
)

// Copier places a rendered document on the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs the clipboard delivery service used by --clipboard.
func NewService() *Service {
	return &Service{}
}

// Copy writes the rendered Markdown document to the system clipboard.
func (service *Service) Copy(text string) error {
	return clipboard.WriteAll(text)
}

var _ Copier = (*Service)(nil)
