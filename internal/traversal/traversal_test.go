package traversal_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/ingest/internal/fsnode"
	"github.com/temirov/ingest/internal/traversal"
	"github.com/temirov/ingest/internal/types"
)

// fixtureFilePayload is the body written into every fixture file.
const fixtureFilePayload = "fixture content\n"

// fixtureRelativePaths lists the eight files of the standard test layout.
var fixtureRelativePaths = []string{
	"file1.txt",
	"file2.py",
	"dir1/file_dir1.txt",
	"dir2/file_dir2.txt",
	"src/subfile1.txt",
	"src/subfile2.py",
	"src/subdir/file_subdir.txt",
	"src/subdir/file_subdir.py",
}

// buildFixtureTree materializes the standard eight-file layout under a
// fresh temporary directory and returns its path.
func buildFixtureTree(testInstance *testing.T) string {
	testInstance.Helper()
	rootDirectory := testInstance.TempDir()
	for _, relativePath := range fixtureRelativePaths {
		fullPath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
		if mkdirError := os.MkdirAll(filepath.Dir(fullPath), 0o755); mkdirError != nil {
			testInstance.Fatalf("creating fixture directory for %s: %v", relativePath, mkdirError)
		}
		if writeError := os.WriteFile(fullPath, []byte(fixtureFilePayload), 0o644); writeError != nil {
			testInstance.Fatalf("writing fixture file %s: %v", relativePath, writeError)
		}
	}
	return rootDirectory
}

// runTraversal walks rootDirectory with the provided pattern sets and
// returns the populated root node.
func runTraversal(testInstance *testing.T, rootDirectory string, ignorePatterns []string, includePatterns []string) *fsnode.FileSystemNode {
	testInstance.Helper()
	rootNode := &fsnode.FileSystemNode{
		Name:         filepath.Base(rootDirectory),
		Kind:         fsnode.KindDirectory,
		RelativePath: ".",
		AbsolutePath: rootDirectory,
	}
	query := &types.IngestionQuery{
		Slug:            filepath.Base(rootDirectory),
		LocalPath:       rootDirectory,
		MaxFileSize:     1024 * 1024,
		IgnorePatterns:  ignorePatterns,
		IncludePatterns: includePatterns,
	}
	stats := &fsnode.FileSystemStats{}
	traversal.NewTraverser(nil).ProcessNode(rootNode, query, stats)
	return rootNode
}

// collectFileNames returns the relative paths of every non-directory
// descendant in traversal order.
func collectFileNames(node *fsnode.FileSystemNode) []string {
	var names []string
	if node.Kind != fsnode.KindDirectory {
		return []string{node.RelativePath}
	}
	for _, child := range node.Children {
		names = append(names, collectFileNames(child)...)
	}
	return names
}

func TestTraversalCollectsAllFixtureFiles(testInstance *testing.T) {
	rootDirectory := buildFixtureTree(testInstance)
	rootNode := runTraversal(testInstance, rootDirectory, nil, nil)

	if rootNode.FileCount != len(fixtureRelativePaths) {
		testInstance.Fatalf("FileCount = %d, expected %d", rootNode.FileCount, len(fixtureRelativePaths))
	}
	expectedSize := int64(len(fixtureFilePayload) * len(fixtureRelativePaths))
	if rootNode.Size != expectedSize {
		testInstance.Fatalf("Size = %d, expected %d", rootNode.Size, expectedSize)
	}
	if rootNode.DirCount != 4 {
		testInstance.Fatalf("DirCount = %d, expected 4", rootNode.DirCount)
	}

	collectedNames := collectFileNames(rootNode)
	if len(collectedNames) != len(fixtureRelativePaths) {
		testInstance.Fatalf("collected %v, expected %d files", collectedNames, len(fixtureRelativePaths))
	}
}

func TestTraversalAggregatesMatchDescendants(testInstance *testing.T) {
	rootDirectory := buildFixtureTree(testInstance)
	rootNode := runTraversal(testInstance, rootDirectory, nil, nil)

	var verifyAggregates func(node *fsnode.FileSystemNode)
	verifyAggregates = func(node *fsnode.FileSystemNode) {
		if node.Kind != fsnode.KindDirectory {
			return
		}
		var childFileTotal int
		var childSizeTotal int64
		for _, child := range node.Children {
			childFileTotal += child.FileCount
			childSizeTotal += child.Size
			verifyAggregates(child)
		}
		if node.FileCount != childFileTotal {
			testInstance.Fatalf("directory %s FileCount = %d, children sum to %d",
				node.RelativePath, node.FileCount, childFileTotal)
		}
		if node.Size != childSizeTotal {
			testInstance.Fatalf("directory %s Size = %d, children sum to %d",
				node.RelativePath, node.Size, childSizeTotal)
		}
	}
	verifyAggregates(rootNode)
}

func TestTraversalIncludePatternSelectsPythonFiles(testInstance *testing.T) {
	rootDirectory := buildFixtureTree(testInstance)
	rootNode := runTraversal(testInstance, rootDirectory, nil, []string{"*.py"})

	if rootNode.FileCount != 3 {
		testInstance.Fatalf("FileCount = %d, expected 3", rootNode.FileCount)
	}
	for _, child := range rootNode.Children {
		if child.Kind == fsnode.KindDirectory && (child.Name == "dir1" || child.Name == "dir2") {
			testInstance.Fatalf("expected empty directory %s to be discarded", child.Name)
		}
	}

	expectedNames := map[string]struct{}{
		"file2.py":                  {},
		"src/subfile2.py":           {},
		"src/subdir/file_subdir.py": {},
	}
	for _, collectedName := range collectFileNames(rootNode) {
		if _, expected := expectedNames[collectedName]; !expected {
			testInstance.Fatalf("unexpected file %s in include-filtered tree", collectedName)
		}
	}
}

func TestTraversalIgnorePatternsRemoveFiles(testInstance *testing.T) {
	rootDirectory := buildFixtureTree(testInstance)
	rootNode := runTraversal(testInstance, rootDirectory, []string{"file2.py", "dir2/file_dir2.txt"}, nil)

	if rootNode.FileCount != 6 {
		testInstance.Fatalf("FileCount = %d, expected 6", rootNode.FileCount)
	}
	for _, collectedName := range collectFileNames(rootNode) {
		if collectedName == "file2.py" || collectedName == "dir2/file_dir2.txt" {
			testInstance.Fatalf("ignored file %s still present", collectedName)
		}
	}
	for _, child := range rootNode.Children {
		if child.Name == "dir2" {
			testInstance.Fatal("expected emptied directory dir2 to be discarded")
		}
	}
}

func TestTraversalIncludePatternWithoutMatches(testInstance *testing.T) {
	rootDirectory := buildFixtureTree(testInstance)
	rootNode := runTraversal(testInstance, rootDirectory, nil, []string{"*.xyz"})

	if rootNode.FileCount != 0 {
		testInstance.Fatalf("FileCount = %d, expected 0", rootNode.FileCount)
	}
	if len(rootNode.Children) != 0 {
		testInstance.Fatalf("expected no children, got %d", len(rootNode.Children))
	}
}

func TestTraversalSymlinkCycleTerminates(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, "nested")
	if mkdirError := os.Mkdir(nestedDirectory, 0o755); mkdirError != nil {
		testInstance.Fatalf("creating nested directory: %v", mkdirError)
	}
	if writeError := os.WriteFile(filepath.Join(nestedDirectory, "file.txt"), []byte(fixtureFilePayload), 0o644); writeError != nil {
		testInstance.Fatalf("writing fixture file: %v", writeError)
	}
	cyclePath := filepath.Join(nestedDirectory, "cycle")
	if symlinkError := os.Symlink(rootDirectory, cyclePath); symlinkError != nil {
		testInstance.Skipf("symlinks unavailable: %v", symlinkError)
	}

	rootNode := runTraversal(testInstance, rootDirectory, nil, nil)

	// One regular file plus the symlink leaf; the link is never descended.
	if rootNode.FileCount != 2 {
		testInstance.Fatalf("FileCount = %d, expected 2", rootNode.FileCount)
	}
	if rootNode.Size != int64(len(fixtureFilePayload)) {
		testInstance.Fatalf("Size = %d, expected symlink to contribute zero bytes", rootNode.Size)
	}
}

func TestTraversalSkipsOversizedFile(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	if writeError := os.WriteFile(filepath.Join(rootDirectory, "small.txt"), []byte(fixtureFilePayload), 0o644); writeError != nil {
		testInstance.Fatalf("writing small file: %v", writeError)
	}
	oversizedPayload := make([]byte, 64)
	if writeError := os.WriteFile(filepath.Join(rootDirectory, "large.txt"), oversizedPayload, 0o644); writeError != nil {
		testInstance.Fatalf("writing large file: %v", writeError)
	}

	rootNode := &fsnode.FileSystemNode{
		Name:         filepath.Base(rootDirectory),
		Kind:         fsnode.KindDirectory,
		RelativePath: ".",
		AbsolutePath: rootDirectory,
	}
	query := &types.IngestionQuery{
		LocalPath:   rootDirectory,
		MaxFileSize: 32,
	}
	stats := &fsnode.FileSystemStats{}
	traversal.NewTraverser(nil).ProcessNode(rootNode, query, stats)

	if rootNode.FileCount != 1 {
		testInstance.Fatalf("FileCount = %d, expected oversized file to be skipped", rootNode.FileCount)
	}
	if rootNode.Children[0].Name != "small.txt" {
		testInstance.Fatalf("remaining file = %s, expected small.txt", rootNode.Children[0].Name)
	}
}

func TestTraversalChildOrderingIsDeterministic(testInstance *testing.T) {
	rootDirectory := buildFixtureTree(testInstance)
	rootNode := runTraversal(testInstance, rootDirectory, nil, nil)

	expectedTopLevel := []string{"file1.txt", "file2.py", "dir1", "dir2", "src"}
	if len(rootNode.Children) != len(expectedTopLevel) {
		testInstance.Fatalf("top-level children = %d, expected %d", len(rootNode.Children), len(expectedTopLevel))
	}
	for childIndex, expectedName := range expectedTopLevel {
		if rootNode.Children[childIndex].Name != expectedName {
			testInstance.Fatalf("child %d = %s, expected %s",
				childIndex, rootNode.Children[childIndex].Name, expectedName)
		}
	}
}

func TestTraversalSymlinkToDirectorySurvivesIncludeFilter(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	targetDirectory := filepath.Join(rootDirectory, "pkg")
	if mkdirError := os.MkdirAll(targetDirectory, 0o755); mkdirError != nil {
		testInstance.Fatalf("creating target directory: %v", mkdirError)
	}
	if writeError := os.WriteFile(filepath.Join(targetDirectory, "module.py"), []byte(fixtureFilePayload), 0o644); writeError != nil {
		testInstance.Fatalf("writing fixture file: %v", writeError)
	}
	if writeError := os.WriteFile(filepath.Join(rootDirectory, "note.txt"), []byte(fixtureFilePayload), 0o644); writeError != nil {
		testInstance.Fatalf("writing fixture file: %v", writeError)
	}
	if symlinkError := os.Symlink(targetDirectory, filepath.Join(rootDirectory, "pkg_link")); symlinkError != nil {
		testInstance.Skipf("symlinks unavailable: %v", symlinkError)
	}

	rootNode := runTraversal(testInstance, rootDirectory, nil, []string{"*.py"})
	collectedNames := collectFileNames(rootNode)

	foundSymlink := false
	for _, collectedName := range collectedNames {
		if collectedName == "note.txt" {
			testInstance.Fatalf("collected names = %v, expected note.txt filtered out", collectedNames)
		}
		if collectedName == "pkg_link" {
			foundSymlink = true
		}
	}
	if !foundSymlink {
		testInstance.Fatalf("collected names = %v, expected the directory symlink to be admitted", collectedNames)
	}
}
