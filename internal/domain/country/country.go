// Package country holds the reference entities of the dataset: countries,
// CDN providers and content classes.
package country

import (
	"fmt"
	"strings"

	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/domain/geo"
)

// Country is a map node.
type Country struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Code        string     `json:"code" yaml:"code"`
	Coordinates geo.LngLat `json:"coordinates" yaml:"coordinates"`
	Region      string     `json:"region" yaml:"region"`
}

// Validate enforces a non-empty code and WGS84 coordinates.
func (c Country) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("country %q: code is empty", c.ID)
	}
	if err := c.Coordinates.Validate(); err != nil {
		return fmt.Errorf("country %s: %w", c.Code, err)
	}
	return nil
}

// Position returns the country's coordinates in rendering order.
func (c Country) Position() geo.LatLng {
	return c.Coordinates.LatLng()
}

// DisplayName falls back to the code when no name is set.
func (c Country) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Code
}

// CDN is a content delivery network provider.
type CDN struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Provider string            `json:"provider" yaml:"provider"`
	Coverage []string          `json:"coverage,omitempty" yaml:"coverage,omitempty"`
	Scope    criticality.Scope `json:"type" yaml:"type"`
}

// Validate checks the CDN identifier and scope.
func (c CDN) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("cdn %q: id is empty", c.Name)
	}
	if c.Scope != "" && !c.Scope.IsValid() {
		return fmt.Errorf("cdn %s: unknown scope %q", c.ID, c.Scope)
	}
	return nil
}

// ContentClass is a category of served content.
type ContentClass struct {
	ID          string               `json:"id" yaml:"id"`
	Name        string               `json:"name" yaml:"name"`
	Category    criticality.Category `json:"category" yaml:"category"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate checks the class identifier and category.
func (c ContentClass) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("content class %q: id is empty", c.Name)
	}
	if !c.Category.IsValid() {
		return fmt.Errorf("content class %s: unknown category %q", c.ID, c.Category)
	}
	return nil
}
