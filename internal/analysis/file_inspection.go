package analysis

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/tyemirov/sitelens/internal/extract"
	"github.com/tyemirov/sitelens/internal/tokenizer"
	"github.com/tyemirov/sitelens/internal/types"
)

const permissionFormat = "%03o"

// inspectFile collects metadata for one regular file. info is nil when stat failed;
// the remaining fields are still attempted.
func (analysisWalker *walker) inspectFile(filePath string, name string, info fs.FileInfo) *types.FileRecord {
	record := &types.FileRecord{
		Name:      name,
		Kind:      extract.Classify(name),
		Extension: extract.Extension(name),
	}
	if info != nil {
		size := info.Size()
		record.Size = &size
		record.Modified = info.ModTime()
		record.Created = creationTime(info)
		record.Permissions = fmt.Sprintf(permissionFormat, info.Mode().Perm())
	}

	if !record.Kind.Recognized() {
		fileDigest, hashError := analysisWalker.options.Hasher.SumFile(filePath)
		if hashError != nil {
			analysisWalker.warn(hashError)
			return record
		}
		record.Hash = fileDigest
		return record
	}

	// #nosec G304
	data, readError := os.ReadFile(filePath)
	if readError != nil {
		analysisWalker.warn(&types.FileReadError{Path: filePath, Op: types.FileOperationRead, Err: readError})
		return record
	}
	record.Hash = analysisWalker.options.Hasher.SumBytes(data)

	content := DecodeText(data)
	lineCount := strings.Count(content, "\n") + 1
	record.Content = &content
	record.LineCount = &lineCount
	record.Structure = extract.Extract(record.Kind, content)

	countResult, countError := tokenizer.CountContent(analysisWalker.options.TokenCounter, content)
	if countError != nil {
		analysisWalker.warn(fmt.Errorf(warningTokenCountFormat, filePath, countError))
	} else if countResult.Counted {
		record.Tokens = countResult.Tokens
	}
	return record
}

// DecodeText decodes file bytes as UTF-8, dropping invalid sequences, and normalizes
// "\r\n" and "\r" line endings to "\n".
func DecodeText(data []byte) string {
	text := strings.ToValidUTF8(string(data), "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
