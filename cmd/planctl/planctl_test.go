package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/mindmesh/internal/llm"
	"github.com/xaenox/mindmesh/internal/models"
	"github.com/xaenox/mindmesh/internal/planner"
)

type echoModel struct {
	calls atomic.Int32
}

func (m *echoModel) Model() string { return "echo" }

// Generate turns the last input line into a single todo.
func (m *echoModel) Generate(ctx context.Context, prompt string) (*llm.Generation, error) {
	m.calls.Add(1)
	_, after, _ := strings.Cut(prompt, "User's messy input:\n")
	title, _, _ := strings.Cut(after, "\n")
	return &llm.Generation{
		Text: `{"categories":[{"name":"Inbox","tasks":{"todo":[{"title":"` + title + `"}]}}]}`,
	}, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestOrganizeFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		paths = append(paths, writeFile(t, dir, name, "task from "+name))
	}

	m := &echoModel{}
	results, err := organizeFiles(context.Background(), planner.NewOrchestrator(m, zap.NewNop()), paths, 2)
	require.NoError(t, err)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, paths[i], r.File)
		assert.Equal(t, "task from "+filepath.Base(paths[i]), r.Plan.Categories[0].Tasks.Todo[0].Title)
	}
	assert.EqualValues(t, 3, m.calls.Load())
}

func TestOrganizeFiles_MissingFile(t *testing.T) {
	o := planner.NewOrchestrator(&echoModel{}, zap.NewNop())
	_, err := organizeFiles(context.Background(), o, []string{filepath.Join(t.TempDir(), "nope.txt")}, 4)
	assert.ErrorContains(t, err, "failed to read")
}

func TestLoadItems(t *testing.T) {
	dir := t.TempDir()

	list := writeFile(t, dir, "list.yaml", `
- id: a
  title: Write changelog
  priority: 4
- title: Tag release
  category: Release
`)
	f, err := loadItems(list)
	require.NoError(t, err)
	assert.Empty(t, f.Title)
	assert.Equal(t, []models.WorkItem{
		{ID: "a", Title: "Write changelog", Priority: 4},
		{Title: "Tag release", Category: "Release"},
	}, f.Items)

	plan := writeFile(t, dir, "plan.yaml", `
title: Launch
description: Ship the beta
items:
  - title: Write changelog
    status: in_progress
`)
	f, err = loadItems(plan)
	require.NoError(t, err)
	assert.Equal(t, "Launch", f.Title)
	assert.Equal(t, "Ship the beta", f.Description)
	require.Len(t, f.Items, 1)
	assert.Equal(t, models.StatusInProgress, f.Items[0].Status)

	_, err = loadItems(writeFile(t, dir, "empty.yaml", "title: nothing\n"))
	assert.ErrorContains(t, err, "has no items")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]string{"name": "<Dev & Ops>"}))
	assert.Equal(t, "{\n  \"name\": \"<Dev & Ops>\"\n}\n", buf.String())
}
