// Package tutorial holds the progressive SQL lessons shipped with sqllab.
package tutorial

import (
	_ "embed"
	"fmt"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/tidwall/gjson"
)

//go:embed tutorials.json
var builtin []byte

// Example is one runnable query of a lesson
type Example struct {
	Query       string `json:"query"`
	Explanation string `json:"explanation"`
}

// Tutorial is one lesson
type Tutorial struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Difficulty  string    `json:"difficulty"`
	Examples    []Example `json:"examples"`
}

// Summary is the lesson blurb shown when a tutorial is opened
func (t Tutorial) Summary() string {
	return fmt.Sprintf("Difficulty: %s\n\n%s\n\nExamples available: %d", t.Difficulty, t.Description, len(t.Examples))
}

// Catalog is an ordered, read-only set of tutorials
type Catalog struct {
	tutorials []Tutorial
	index     map[string]int
}

// Load returns the catalogue compiled into the binary
func Load() (*Catalog, error) {
	return Parse(builtin)
}

// Parse builds a catalogue from its JSON document
func Parse(data []byte) (*Catalog, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New(ErrCatalogInvalid, "tutorial catalogue is not valid JSON", nil)
	}

	list := gjson.GetBytes(data, "tutorials")
	if !list.IsArray() {
		return nil, errors.New(ErrCatalogInvalid, "tutorial catalogue has no tutorials array", nil)
	}

	c := &Catalog{index: make(map[string]int)}
	for i, item := range list.Array() {
		t := Tutorial{
			ID:          item.Get("id").String(),
			Title:       item.Get("title").String(),
			Description: item.Get("description").String(),
			Difficulty:  item.Get("difficulty").String(),
		}
		if t.ID == "" || t.Title == "" {
			return nil, errors.Newf(ErrCatalogInvalid, "tutorial %d needs an id and a title", i)
		}
		if _, dup := c.index[t.ID]; dup {
			return nil, errors.New(ErrCatalogInvalid, "duplicate tutorial id", nil).AddContext("id", t.ID)
		}

		for _, ex := range item.Get("examples").Array() {
			example := Example{
				Query:       ex.Get("query").String(),
				Explanation: ex.Get("explanation").String(),
			}
			if example.Query == "" {
				return nil, errors.New(ErrCatalogInvalid, "tutorial example without a query", nil).AddContext("id", t.ID)
			}
			t.Examples = append(t.Examples, example)
		}

		c.index[t.ID] = len(c.tutorials)
		c.tutorials = append(c.tutorials, t)
	}

	return c, nil
}

// Len returns the number of tutorials
func (c *Catalog) Len() int {
	return len(c.tutorials)
}

// List returns the tutorials in lesson order
func (c *Catalog) List() []Tutorial {
	out := make([]Tutorial, len(c.tutorials))
	copy(out, c.tutorials)
	return out
}

// Get returns the tutorial with the given id
func (c *Catalog) Get(id string) (Tutorial, error) {
	i, ok := c.index[id]
	if !ok {
		return Tutorial{}, errors.New(ErrTutorialMissing, "tutorial not found", nil).AddContext("id", id)
	}
	return c.tutorials[i], nil
}

// At returns the tutorial at a zero-based lesson position
func (c *Catalog) At(index int) (Tutorial, error) {
	if index < 0 || index >= len(c.tutorials) {
		return Tutorial{}, errors.Newf(ErrIndexOutOfRange, "lesson %d does not exist, there are %d", index+1, len(c.tutorials))
	}
	return c.tutorials[index], nil
}

// Position returns the zero-based lesson position of id, -1 when unknown
func (c *Catalog) Position(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// Cursor hands out a tutorial's examples one after another, wrapping around
type Cursor struct {
	tutorial Tutorial
	next     int
}

// NewCursor starts at the first example of t
func NewCursor(t Tutorial) *Cursor {
	return &Cursor{tutorial: t}
}

// Tutorial returns the lesson the cursor walks
func (c *Cursor) Tutorial() Tutorial {
	return c.tutorial
}

// Next returns the next example; false when the lesson has none
func (c *Cursor) Next() (Example, bool) {
	n := len(c.tutorial.Examples)
	if n == 0 {
		return Example{}, false
	}
	ex := c.tutorial.Examples[c.next%n]
	c.next = (c.next + 1) % n
	return ex, true
}

// Reset moves the cursor back to the first example
func (c *Cursor) Reset() {
	c.next = 0
}
