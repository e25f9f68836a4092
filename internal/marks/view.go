package marks

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/stemsi/marksheet-backend/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the column the marksheet is ordered by.
type SortKey string

const (
	SortByRollNo     SortKey = "rollNo"
	SortByName       SortKey = "name"
	SortByTotal      SortKey = "total"
	SortByPercentage SortKey = "percentage"
)

// SortDir is the marksheet ordering direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// ViewQuery is the complete input of a marksheet view besides the records.
type ViewQuery struct {
	Search  string  `json:"search"`
	SortKey SortKey `json:"sort"`
	SortDir SortDir `json:"dir"`
}

// NewViewQuery builds a query from raw request strings. An empty sort defaults to
// roll number ascending, the marksheet's natural order.
func NewViewQuery(search, sort, dir string) ViewQuery {
	return ViewQuery{
		Search:  search,
		SortKey: ParseSortKey(sort),
		SortDir: ParseSortDir(dir),
	}
}

// ParseSortKey maps a request value onto a SortKey. Unknown values are kept as-is
// and leave the filtered order untouched when the view is derived.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SortByRollNo
	case "rollno", "roll_no":
		return SortByRollNo
	case "name":
		return SortByName
	case "total":
		return SortByTotal
	case "percentage":
		return SortByPercentage
	default:
		return SortKey(s)
	}
}

// ParseSortDir returns Desc for "desc" in any case and Asc otherwise.
func ParseSortDir(s string) SortDir {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// Composer derives marksheet views. Its only setting is the collation locale used
// for name ordering.
type Composer struct {
	tag language.Tag
}

// NewComposer returns a Composer collating names for the given locale.
func NewComposer(tag language.Tag) *Composer {
	return &Composer{tag: tag}
}

// NewComposerForLocale parses a BCP 47 tag, falling back to English.
func NewComposerForLocale(locale string) *Composer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return NewComposer(tag)
}

var defaultComposer = NewComposer(language.English)

// DeriveView derives a view with English collation.
func DeriveView(records []model.Student, q ViewQuery) []model.Student {
	return defaultComposer.DeriveView(records, q)
}

// DeriveView filters records by the search text and orders the survivors.
//
// A record matches when its name or roll number contains the trimmed search,
// compared with Unicode case folding. Sorting is stable and a descending view
// inverts the comparator, so equal keys keep their filtered relative order in
// both directions. An unknown sort key keeps the filtered order.
//
// The input slice is never modified; the result is always a new slice.
func (c *Composer) DeriveView(records []model.Student, q ViewQuery) []model.Student {
	out := filter(records, q.Search)

	compare := c.comparator(q.SortKey)
	if compare == nil {
		return out
	}
	if q.SortDir == Desc {
		asc := compare
		compare = func(a, b model.Student) int { return asc(b, a) }
	}

	slices.SortStableFunc(out, compare)
	return out
}

func filter(records []model.Student, search string) []model.Student {
	out := make([]model.Student, 0, len(records))

	// Casers keep state, so one per call.
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(search))
	if needle == "" {
		return append(out, records...)
	}

	for _, r := range records {
		if strings.Contains(fold.String(r.Name), needle) || strings.Contains(fold.String(r.RollNo), needle) {
			out = append(out, r)
		}
	}
	return out
}

func (c *Composer) comparator(key SortKey) func(a, b model.Student) int {
	switch key {
	case SortByRollNo:
		return func(a, b model.Student) int {
			return cmp.Compare(RollNumber(a.RollNo), RollNumber(b.RollNo))
		}
	case SortByName:
		// Collators are not safe for concurrent use either.
		col := collate.New(c.tag)
		return func(a, b model.Student) int {
			return col.CompareString(a.Name, b.Name)
		}
	case SortByTotal:
		return func(a, b model.Student) int {
			return cmp.Compare(finite(a.Total), finite(b.Total))
		}
	case SortByPercentage:
		return func(a, b model.Student) int {
			return cmp.Compare(finite(a.Percentage), finite(b.Percentage))
		}
	default:
		return nil
	}
}

// RollNumber reads the leading base-10 integer of a roll number: leading white
// space is skipped, an optional sign is honoured and parsing stops at the first
// non-digit. Roll numbers without leading digits read as 0, so "12B" is 12 and
// "abc" is 0. Values beyond the int64 range saturate.
func RollNumber(s string) int64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	var n int64
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < '0' || ch > '9' {
			break
		}
		d := int64(ch - '0')
		if n > (math.MaxInt64-d)/10 {
			n = math.MaxInt64
			break
		}
		n = n*10 + d
	}

	if neg {
		return -n
	}
	return n
}
