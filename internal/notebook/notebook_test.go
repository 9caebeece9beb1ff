package notebook_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/temirov/ingest/internal/notebook"
)

const sampleNotebookDocument = `{
  "cells": [
    {
      "cell_type": "markdown",
      "source": ["# Title\n", "Intro paragraph."]
    },
    {
      "cell_type": "code",
      "source": "x = 1\nprint(x)",
      "outputs": [
        {"output_type": "stream", "text": ["1\n"]},
        {"output_type": "execute_result", "data": {"text/plain": "1"}},
        {"output_type": "error", "evalue": "NameError: boom"}
      ]
    },
    {
      "cell_type": "raw",
      "source": "raw payload"
    },
    {
      "cell_type": "mystery",
      "source": "should be skipped"
    }
  ]
}`

func writeNotebookFixture(testInstance *testing.T, document string) string {
	testInstance.Helper()
	path := filepath.Join(testInstance.TempDir(), "sample.ipynb")
	if writeError := os.WriteFile(path, []byte(document), 0o644); writeError != nil {
		testInstance.Fatalf("writing notebook fixture: %v", writeError)
	}
	return path
}

func TestConvertRendersCellsAndOutputs(testInstance *testing.T) {
	path := writeNotebookFixture(testInstance, sampleNotebookDocument)

	converted, convertError := notebook.Convert(path)
	if convertError != nil {
		testInstance.Fatalf("Convert returned error: %v", convertError)
	}

	expectedFragments := []string{
		"# %% [markdown]",
		"# # Title",
		"# Intro paragraph.",
		"# %%\nx = 1\nprint(x)",
		"# 1",
		"# NameError: boom",
		"# %% [raw]",
		"# raw payload",
	}
	for _, expectedFragment := range expectedFragments {
		if !strings.Contains(converted, expectedFragment) {
			testInstance.Fatalf("converted notebook missing %q:\n%s", expectedFragment, converted)
		}
	}
	if strings.Contains(converted, "should be skipped") {
		testInstance.Fatalf("unknown cell type should be dropped:\n%s", converted)
	}
}

func TestConvertRejectsMalformedDocuments(testInstance *testing.T) {
	path := writeNotebookFixture(testInstance, "{not json")

	if _, convertError := notebook.Convert(path); convertError == nil {
		testInstance.Fatal("Convert should fail on malformed JSON")
	}
}

func TestConvertMissingFile(testInstance *testing.T) {
	missingPath := filepath.Join(testInstance.TempDir(), "absent.ipynb")

	if _, convertError := notebook.Convert(missingPath); convertError == nil {
		testInstance.Fatal("Convert should fail when the notebook does not exist")
	}
}
