// Package clipboard copies rendered analysis bundles to the system clipboard.
package clipboard

import (
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/tyemirov/sitelens/internal/bundle"
	"github.com/tyemirov/sitelens/internal/types"
)

const (
	errorUnknownProfileFormat = "clipboard profile %q is not in the active profile set"
	errorRenderBundleFormat   = "render %s bundle for clipboard: %w"
	errorCopyBundleFormat     = "copy %s bundle to clipboard: %w"
)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a Clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	return clipboard.WriteAll(text)
}

var _ Copier = (*Service)(nil)

// CopyBundle renders the bundle of the named profile and hands it to copier.
func CopyBundle(copier Copier, tree *types.AnalysisTree, profiles bundle.ProfileSet, profileName string) error {
	profile, found := profiles.Lookup(profileName)
	if !found {
		return fmt.Errorf(errorUnknownProfileFormat, profileName)
	}
	rendered, renderError := bundle.Render(tree, profile)
	if renderError != nil {
		return fmt.Errorf(errorRenderBundleFormat, profileName, renderError)
	}
	if copyError := copier.Copy(string(rendered)); copyError != nil {
		return fmt.Errorf(errorCopyBundleFormat, profileName, copyError)
	}
	return nil
}
