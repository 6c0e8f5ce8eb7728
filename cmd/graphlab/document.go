package main

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/graph-analytics-service/pkg/engine"
	"github.com/gilchrisn/graph-analytics-service/pkg/models"
)

// Document is a request file for "graphlab run". JSON documents parse as YAML.
type Document struct {
	Algorithm    string              `yaml:"algorithm"`
	Parameters   yaml.Node           `yaml:"parameters"`
	Entities     []models.Entity     `yaml:"entities"`
	Relations    []models.Relation   `yaml:"relations"`
	Graph        *models.Graph       `yaml:"graph"`
	Cooccurrence *CooccurrenceSource `yaml:"cooccurrence"`
}

// CooccurrenceSource asks for the graph to be derived from the entities
type CooccurrenceSource struct {
	ContainerType string `yaml:"containerType"`
	ItemType      string `yaml:"itemType"`
}

// ReadDocument loads a request document from path; "-" reads stdin
func ReadDocument(path string) (*Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading request document")
	}
	return ParseDocument(data)
}

// ParseDocument decodes a YAML or JSON request document, rejecting unknown top-level keys
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, errors.New("request document is empty")
		}
		return nil, errors.Wrap(err, "parsing request document")
	}
	if doc.Algorithm == "" {
		return nil, errors.New("request document has no algorithm")
	}
	return &doc, nil
}

// Request resolves the document into an engine request. The graph comes from the document,
// or is derived with eng.Cooccurrence when a co-occurrence source is given.
func (d *Document) Request(eng *engine.Engine) (engine.Request, error) {
	alg, err := engine.ParseAlgorithm(d.Algorithm)
	if err != nil {
		return engine.Request{}, err
	}

	params, err := engine.NewParams(alg)
	if err != nil {
		return engine.Request{}, err
	}
	if !d.Parameters.IsZero() {
		if err := d.Parameters.Decode(params); err != nil {
			return engine.Request{}, errors.Wrapf(engine.ErrInvalidParameters, "%s: %v", alg, err)
		}
	}

	req := engine.Request{
		Params:    params,
		Entities:  d.Entities,
		Relations: d.Relations,
	}

	switch {
	case d.Graph != nil:
		req.Graph = *d.Graph
	case d.Cooccurrence != nil:
		if d.Cooccurrence.ContainerType == "" || d.Cooccurrence.ItemType == "" {
			return engine.Request{}, errors.New("cooccurrence needs containerType and itemType")
		}
		req.Graph = eng.Cooccurrence(d.Entities, d.Relations, d.Cooccurrence.ContainerType, d.Cooccurrence.ItemType)
	}

	return req, nil
}
