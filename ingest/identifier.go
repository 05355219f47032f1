package ingest

import (
	"strings"
	"unicode/utf8"

	"emperror.dev/errors"
)

const ErrInvalidIdentifier = errors.Sentinel("ingest: invalid identifier")

// The maximum length QuestDB accepts for table and column names.
const maxIdentifierLength = 127

// Characters QuestDB rejects anywhere in a table name. Column names reject
// these as well as the additional set below.
const (
	illegalTableChars  = "?,'\"\\/:)(+*%~\r\n\x00\x01\x02\x03\x04\x05\x06\x07\x08\x09\x0b\x0c\x0e\x0f\x7f\ufeff"
	illegalColumnChars = ".-"
)

// ValidateTableName checks a table name against the rules enforced by the
// database before any data is sent.
func ValidateTableName(name string) error {
	if err := validateIdentifier("table", name, illegalTableChars); err != nil {
		return err
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
		return errors.WithDetails(errors.Wrap(ErrInvalidIdentifier, "table name has a misplaced dot"), "table", name)
	}
	return nil
}

// ValidateColumnName checks a column or symbol name.
func ValidateColumnName(name string) error {
	return validateIdentifier("column", name, illegalTableChars+illegalColumnChars)
}

func validateIdentifier(kind, name, illegal string) error {
	if name == "" {
		return errors.WithDetails(errors.Wrap(ErrInvalidIdentifier, kind+" name is empty"), kind, name)
	}
	if utf8.RuneCountInString(name) > maxIdentifierLength {
		return errors.WithDetails(errors.Wrap(ErrInvalidIdentifier, kind+" name is too long"), kind, name)
	}
	if i := strings.IndexAny(name, illegal); i >= 0 {
		r, _ := utf8.DecodeRuneInString(name[i:])
		return errors.WithDetails(errors.Wrapf(ErrInvalidIdentifier, "%s name contains illegal character %q", kind, r), kind, name)
	}
	return nil
}
