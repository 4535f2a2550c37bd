package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/unicode/norm"

	"quickref/internal/config"
	"quickref/internal/domain"
	models "quickref/internal/domain/models/catalog"
)

// ParsePath splits a slash separated category path. Empty segments are
// dropped, surrounding whitespace is trimmed and percent-escapes are decoded
// per segment, so "a//b/", "/a/b" and "a/%20b" all name the same node as "a/b".
func ParsePath(raw string) []string {
	parts := strings.Split(raw, "/")
	path := make([]string, 0, len(parts))
	for _, part := range parts {
		if decoded, err := url.PathUnescape(part); err == nil {
			part = decoded
		}
		part = strings.TrimSpace(part)
		if part != "" {
			path = append(path, part)
		}
	}
	return path
}

// JoinPath is the inverse of ParsePath for display and logging.
func JoinPath(path []string) string {
	return strings.Join(path, "/")
}

var errReservedSegment = errors.New("segment name is reserved")

// ValidatePath checks every segment of a category path. The root (empty
// path) is valid here; operations that cannot target the root check that
// themselves.
func ValidatePath(path []string) error {
	if len(path) > config.MaxPathDepth {
		return &domain.InvalidPathError{
			Path:   path,
			Reason: fmt.Sprintf("deeper than %d levels", config.MaxPathDepth),
		}
	}
	for _, seg := range path {
		err := validation.Validate(seg,
			validation.Required,
			validation.RuneLength(1, config.MaxSegmentLength),
			validation.By(checkSegment),
		)
		if err != nil {
			return &domain.InvalidPathError{Path: path, Reason: fmt.Sprintf("segment %q: %v", seg, err)}
		}
	}
	return nil
}

func checkSegment(value interface{}) error {
	seg, _ := value.(string)
	if seg == models.FilesKey {
		return errReservedSegment
	}
	if strings.ContainsRune(seg, '/') {
		return errors.New("must not contain '/'")
	}
	if strings.IndexFunc(seg, unicode.IsControl) >= 0 {
		return errors.New("must not contain control characters")
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces a client supplied filename to a safe flat name:
// ASCII only, path separators become spaces, whitespace runs become "_",
// anything outside [A-Za-z0-9_.-] is dropped and leading or trailing dots and
// underscores are trimmed. The result may be empty.
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, name)

	name = strings.ReplaceAll(name, string(os.PathSeparator), " ")
	name = strings.ReplaceAll(name, "\\", " ")
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// ValidateDocumentName checks a sanitized filename is usable as a document id.
func ValidateDocumentName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxFilenameLength),
		validation.By(func(value interface{}) error {
			if !strings.EqualFold(extension(value.(string)), ".pdf") {
				return errors.New("only .pdf documents are accepted")
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: filename %q: %v", domain.ErrValidation, name, err)
	}
	return nil
}

func extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
