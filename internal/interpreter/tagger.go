package interpreter

import (
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

// proseModel loads the tagger and NER weights once; they are read-only after.
var proseModel = sync.OnceValue(func() *prose.Model {
	doc, _ := prose.NewDocument("", prose.WithSegmentation(false))
	return doc.Model
})

// ProseTagger finds geopolitical entities with prose's named-entity model.
type ProseTagger struct{}

func (ProseTagger) Places(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.UsingModel(proseModel()))
	if err != nil {
		return nil, err
	}

	var places []string
	for _, ent := range doc.Entities() {
		if ent.Label == "GPE" {
			places = append(places, strings.ToLower(ent.Text))
		}
	}
	return places, nil
}
