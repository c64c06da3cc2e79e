package ingest

import (
	"context"
	"testing"

	"github.com/foliolegal/enrichcore/pkg/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DispatchesByFormat(t *testing.T) {
	r := NewRegistry()
	text, _, err := r.Ingest(context.Background(), job.Input{
		Content: "hello world",
		Format:  job.FormatText,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestRegistry_UnsupportedFormat(t *testing.T) {
	r := NewRegistry()
	_, _, err := r.Ingest(context.Background(), job.Input{Content: "x", Format: "unknown"})
	assert.Error(t, err)
}

func TestHTMLIngester_ExtractsHeadingsAndParagraphs(t *testing.T) {
	html := `<html><body><h1>Complaint</h1><p>Plaintiff alleges breach.</p><h2>Background</h2><p>Facts follow.</p></body></html>`
	text, elements, err := (htmlIngester{}).Ingest(context.Background(), job.Input{Content: html})
	require.NoError(t, err)
	assert.Contains(t, text, "Plaintiff alleges breach.")

	var gotHeading, gotSectionPath bool
	for _, e := range elements {
		if e.ElementType == "heading" && e.Text == "Background" {
			gotHeading = true
			assert.Equal(t, "Complaint > Background", e.SectionPath)
		}
		if e.ElementType == "paragraph" && e.SectionPath != "" {
			gotSectionPath = true
		}
	}
	assert.True(t, gotHeading)
	assert.True(t, gotSectionPath)
}

func TestMarkdownIngester_HeadingHierarchy(t *testing.T) {
	md := "# Title\n\nIntro text.\n\n## Section\n\n- item one\n- item two\n"
	text, elements, err := (markdownIngester{}).Ingest(context.Background(), job.Input{Content: md})
	require.NoError(t, err)
	assert.Contains(t, text, "Intro text.")

	found := false
	for _, e := range elements {
		if e.ElementType == "list_item" && e.Text == "item one" {
			found = true
			assert.Equal(t, "Title > Section", e.SectionPath)
		}
	}
	assert.True(t, found)
}

func TestRTFIngester_StripsControlWordsKeepsBody(t *testing.T) {
	rtf := `{\rtf1\ansi\deff0{\fonttbl{\f0 Times New Roman;}}{\colortbl;\red0\green0\blue0;}\f0\fs24 This is the actual contract text.\par Second paragraph.}`
	text, _, err := (rtfIngester{}).Ingest(context.Background(), job.Input{Content: rtf})
	require.NoError(t, err)
	assert.Contains(t, text, "This is the actual contract text.")
	assert.Contains(t, text, "Second paragraph.")
	assert.NotContains(t, text, "Times New Roman")
}

func TestEmailIngester_ExtractsHeadersAndBody(t *testing.T) {
	raw := "From: alice@example.com\r\nTo: bob@example.com\r\nSubject: Settlement Offer\r\n\r\nPlease review the attached settlement terms.\r\n"
	text, elements, err := (emailIngester{}).Ingest(context.Background(), job.Input{Content: raw})
	require.NoError(t, err)
	assert.Contains(t, text, "Please review the attached settlement terms.")

	var sawSubject bool
	for _, e := range elements {
		if e.SectionPath == "Subject" {
			sawSubject = true
			assert.Equal(t, "Settlement Offer", e.Text)
		}
	}
	assert.True(t, sawSubject)
}
