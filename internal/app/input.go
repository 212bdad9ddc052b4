package app

import (
	"encoding/json"
	"strings"

	"pagebuilder/internal/document"
	"pagebuilder/internal/publish"
)

// ProposalInput is a proposal save request as submitted by the editor form.
type ProposalInput struct {
	Slug      string
	Status    string
	DataEn    string
	DataAr    string
	Flags     ProposalFlags
	ExpiresAt string
}

// ProgressInput is a progress page save request. A blank Password keeps the
// stored one.
type ProgressInput struct {
	Slug     string
	Status   string
	DataEn   string
	DataAr   string
	Flags    ProgressFlags
	Password string
}

type MetaInput struct {
	Slug     string
	Status   string
	DataEn   string
	DataAr   string
	Flags    MetaFlags
	Password string
}

// parseHeader normalizes the fields every page kind shares.
func parseHeader(rawSlug, rawStatus string) (string, string, error) {
	status, err := publish.ParseStatus(rawStatus)
	if err != nil {
		return "", "", asValidation(err)
	}
	return publish.NormalizeSlug(rawSlug), status, nil
}

// parsePayload reads one language's document. A blank payload is the empty
// template; anything that is not JSON is rejected.
func parsePayload(kind document.Kind, field, raw string) (document.Document, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return document.Empty(kind)
	}
	if !json.Valid([]byte(raw)) {
		return nil, validationFailed(field, "Invalid content payload.")
	}
	return document.Normalize(kind, raw)
}

func parsePayloads(kind document.Kind, rawEn, rawAr string) (document.Document, document.Document, error) {
	en, err := parsePayload(kind, "dataEn", rawEn)
	if err != nil {
		return nil, nil, err
	}
	ar, err := parsePayload(kind, "dataAr", rawAr)
	if err != nil {
		return nil, nil, err
	}
	return en, ar, nil
}

func marshalPtr(doc document.Document) *string {
	payload := document.Marshal(doc)
	return &payload
}
