package schema

import "strings"

// MaxSize is the Size of a column declared with an unbounded length.
const MaxSize = -1

// TypeFamily groups data types that convert into each other in place.
type TypeFamily int

const (
	FamilyOther TypeFamily = iota
	FamilyInteger
	FamilyDecimal
	FamilyFloat
	FamilyString
	FamilyBinary
	FamilyDateTime
	FamilyBool
	FamilyGUID
	FamilyLOB
)

var typeFamilies = map[string]TypeFamily{
	"tinyint": FamilyInteger, "smallint": FamilyInteger, "int": FamilyInteger, "integer": FamilyInteger,
	"mediumint": FamilyInteger, "bigint": FamilyInteger, "serial": FamilyInteger, "bigserial": FamilyInteger,
	"decimal": FamilyDecimal, "numeric": FamilyDecimal, "money": FamilyDecimal, "smallmoney": FamilyDecimal,
	"float": FamilyFloat, "real": FamilyFloat, "double": FamilyFloat, "double precision": FamilyFloat,
	"char": FamilyString, "nchar": FamilyString, "varchar": FamilyString, "nvarchar": FamilyString,
	"character": FamilyString, "character varying": FamilyString, "sysname": FamilyString,
	"binary": FamilyBinary, "varbinary": FamilyBinary, "bytea": FamilyBinary, "blob": FamilyLOB,
	"date": FamilyDateTime, "datetime": FamilyDateTime, "datetime2": FamilyDateTime, "smalldatetime": FamilyDateTime,
	"datetimeoffset": FamilyDateTime, "time": FamilyDateTime, "timestamp without time zone": FamilyDateTime,
	"timestamp with time zone": FamilyDateTime, "timestamptz": FamilyDateTime,
	"bit": FamilyBool, "bool": FamilyBool, "boolean": FamilyBool,
	"uniqueidentifier": FamilyGUID, "uuid": FamilyGUID,
	"text": FamilyLOB, "ntext": FamilyLOB, "image": FamilyLOB, "xml": FamilyLOB,
	"longtext": FamilyLOB, "mediumtext": FamilyLOB, "longblob": FamilyLOB, "json": FamilyLOB, "jsonb": FamilyLOB,
}

// integer widths, used to tell widening from narrowing
var integerRank = map[string]int{
	"tinyint": 1, "smallint": 2, "mediumint": 3, "int": 4, "integer": 4, "serial": 4, "bigint": 5, "bigserial": 5,
}

// string types that hold unicode text
var unicodeTypes = map[string]bool{"nchar": true, "nvarchar": true, "ntext": true}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// FamilyOf returns the family of a data type name.
func FamilyOf(dataType string) TypeFamily {
	return typeFamilies[normalizeType(dataType)]
}

// IsTimestamp reports whether the type is a SQL Server row version, which
// the server maintains and which cannot be inserted explicitly.
func IsTimestamp(dataType string) bool {
	t := normalizeType(dataType)
	return t == "timestamp" || t == "rowversion"
}

// IsXML reports whether the type is xml.
func IsXML(dataType string) bool {
	return normalizeType(dataType) == "xml"
}

// CanAlterInPlace reports whether a column can change from the origin to
// the destination shape with an ALTER COLUMN, without losing data.
func CanAlterInPlace(from, to *Column) bool {
	if from.Identity != to.Identity || from.Computed != to.Computed || from.Formula != to.Formula {
		return false
	}
	if from.IsFileStream != to.IsFileStream || from.RowGUID != to.RowGUID {
		return false
	}
	ft, tt := normalizeType(from.DataType), normalizeType(to.DataType)
	ff, tf := typeFamilies[ft], typeFamilies[tt]
	if ff != tf {
		return false
	}
	if ff == FamilyOther || ff == FamilyLOB {
		return ft == tt
	}
	switch ff {
	case FamilyInteger:
		return integerRank[tt] >= integerRank[ft]
	case FamilyDecimal:
		return to.Precision-to.Scale >= from.Precision-from.Scale && to.Scale >= from.Scale
	case FamilyFloat:
		return to.Precision >= from.Precision || to.Precision == 0
	case FamilyString:
		if unicodeTypes[ft] && !unicodeTypes[tt] {
			return false
		}
		return !narrower(to.Size, from.Size)
	case FamilyBinary:
		return !narrower(to.Size, from.Size)
	}
	return true
}

// narrower reports whether size a holds less than size b.
func narrower(a, b int) bool {
	switch {
	case a == b:
		return false
	case a == MaxSize:
		return false
	case b == MaxSize:
		return true
	}
	return a < b
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}
