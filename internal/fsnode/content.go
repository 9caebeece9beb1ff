package fsnode

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/temirov/ingest/internal/notebook"
	"github.com/temirov/ingest/internal/utils"
)

const (
	// probeChunkSize is the number of leading bytes read to classify a file.
	probeChunkSize = 1024
	// readChunkSize is the unit for assembling full file contents.
	readChunkSize = 1024 * 1024
	// fullReadThreshold separates fully-read files from preview-only files.
	fullReadThreshold = 10 * 1024 * 1024
	// previewSize is the number of decoded bytes kept for oversized files.
	previewSize = 100 * 1024

	utf8EncodingName = "utf-8"

	emptyFileMarker  = "[Empty file]"
	binaryFileMarker = "[Binary file]"
	probeReadError   = "Error reading file"
	undecodableError = "Error: Unable to decode file with available encodings"
)

// textEncoding pairs a display name with a decoder for the probe list.
type textEncoding struct {
	name    string
	decoder *encoding.Decoder
}

// preferredEncodings returns the ordered probe list. UTF-8 always wins for
// valid UTF-8 content; the remaining entries cover BOM-marked UTF-16 and the
// single-byte encodings common in older repositories.
func preferredEncodings() []textEncoding {
	return []textEncoding{
		{name: utf8EncodingName, decoder: unicode.UTF8.NewDecoder()},
		{name: "utf-16", decoder: unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()},
		{name: "utf-16be", decoder: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()},
		{name: "windows-1252", decoder: charmap.Windows1252.NewDecoder()},
		{name: "latin-1", decoder: charmap.ISO8859_1.NewDecoder()},
	}
}

// decodes reports whether chunk decodes cleanly with the provided encoding.
func decodes(chunk []byte, candidate textEncoding) bool {
	decoded, decodeError := candidate.decoder.Bytes(chunk)
	return decodeError == nil && len(decoded) > 0
}

// Content resolves the node's textual content, memoizing the result.
//
// Directories fail with ErrDirectoryContent. Symlinks resolve to the empty
// string. Notebook files are rendered through the notebook converter.
// Regular files are classified from a small probe chunk (empty, binary, or
// text with a detected encoding) and then read either fully or as a bounded
// preview. Every per-file failure is absorbed into placeholder text so one
// unreadable file never aborts a digest; the only returned error is the
// structural directory misuse.
func (node *FileSystemNode) Content() (string, error) {
	if node.contentCache != nil {
		return *node.contentCache, nil
	}

	switch node.Kind {
	case KindDirectory:
		return "", ErrDirectoryContent
	case KindSymlink:
		return node.storeContent(""), nil
	}

	if filepath.Ext(node.Name) == notebook.Extension {
		convertedNotebook, conversionError := notebook.Convert(node.AbsolutePath)
		if conversionError != nil {
			return node.storeContent(fmt.Sprintf("Error processing notebook: %v", conversionError)), nil
		}
		return node.storeContent(convertedNotebook), nil
	}

	probeChunk, probeError := readProbeChunk(node.AbsolutePath)
	if probeError != nil {
		return node.storeContent(probeReadError), nil
	}
	if len(probeChunk) == 0 {
		return node.storeContent(emptyFileMarker), nil
	}
	if utils.IsBinary(probeChunk) {
		return node.storeContent(binaryFileMarker), nil
	}

	chosenEncoding, encodingFound := chooseEncoding(probeChunk)
	if !encodingFound {
		return node.storeContent(undecodableError), nil
	}

	return node.storeContent(node.readWithEncoding(chosenEncoding)), nil
}

// storeContent caches value on the node and returns it.
func (node *FileSystemNode) storeContent(value string) string {
	node.contentCache = &value
	return value
}

// readProbeChunk reads up to probeChunkSize leading bytes of the file.
func readProbeChunk(path string) ([]byte, error) {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return nil, openError
	}
	defer fileHandle.Close()

	buffer := make([]byte, probeChunkSize)
	bytesRead, readError := fileHandle.Read(buffer)
	if readError != nil && readError != io.EOF {
		return nil, readError
	}
	return buffer[:bytesRead], nil
}

// chooseEncoding returns the first preferred encoding that decodes chunk.
func chooseEncoding(chunk []byte) (textEncoding, bool) {
	for _, candidate := range preferredEncodings() {
		if decodes(chunk, candidate) {
			return candidate, true
		}
	}
	return textEncoding{}, false
}

// readWithEncoding reads the file using the chosen encoding. Files up to
// fullReadThreshold are read completely in readChunkSize pieces; larger
// files keep a previewSize prefix plus a truncation marker naming the total
// size. OS and decode failures become explanatory text.
func (node *FileSystemNode) readWithEncoding(chosenEncoding textEncoding) string {
	fileInfo, statError := os.Stat(node.AbsolutePath)
	if statError != nil {
		return fmt.Sprintf("Error reading file with %s: %v", chosenEncoding.name, statError)
	}
	fileSize := fileInfo.Size()

	fileHandle, openError := os.Open(node.AbsolutePath)
	if openError != nil {
		return fmt.Sprintf("Error reading file with %s: %v", chosenEncoding.name, openError)
	}
	defer fileHandle.Close()

	decodedReader := chosenEncoding.decoder.Reader(fileHandle)
	if chosenEncoding.name == utf8EncodingName {
		// The UTF-8 decoder substitutes U+FFFD for invalid bytes; validating
		// keeps a corrupt tail past the probe window a read error.
		decodedReader = transform.NewReader(fileHandle, encoding.UTF8Validator)
	}

	if fileSize > fullReadThreshold {
		previewBuffer := make([]byte, previewSize)
		previewLength, previewReadError := io.ReadFull(decodedReader, previewBuffer)
		if previewReadError != nil && previewReadError != io.ErrUnexpectedEOF && previewReadError != io.EOF {
			return fmt.Sprintf("Error reading file with %s: %v", chosenEncoding.name, previewReadError)
		}
		return string(previewBuffer[:previewLength]) +
			fmt.Sprintf("\n\n[... File truncated (total size: %s MB) ...]", utils.FormatMegabytes(fileSize))
	}

	var contentBuffer bytes.Buffer
	readBuffer := make([]byte, readChunkSize)
	for {
		bytesRead, readError := decodedReader.Read(readBuffer)
		if bytesRead > 0 {
			contentBuffer.Write(readBuffer[:bytesRead])
		}
		if readError == io.EOF {
			break
		}
		if readError != nil {
			return fmt.Sprintf("Error reading file with %s: %v", chosenEncoding.name, readError)
		}
	}
	return contentBuffer.String()
}

// HasCachedContent reports whether content is currently memoized. It exists
// so eviction behavior stays an explicit, testable contract.
func (node *FileSystemNode) HasCachedContent() bool {
	return node.contentCache != nil
}

// LineCount returns the number of lines in the resolved content.
func (node *FileSystemNode) LineCount() (int, error) {
	resolvedContent, contentError := node.Content()
	if contentError != nil {
		return 0, contentError
	}
	if resolvedContent == "" {
		return 0, nil
	}
	lineTotal := strings.Count(resolvedContent, "\n")
	if !strings.HasSuffix(resolvedContent, "\n") {
		lineTotal++
	}
	return lineTotal, nil
}
