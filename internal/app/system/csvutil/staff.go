// internal/app/system/csvutil/staff.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrEmpty         = errors.New("csv has no header row")
	ErrTooManyRows   = fmt.Errorf("csv exceeds %d rows", MaxRows)
	ErrMissingColumn = errors.New("csv header is missing a required column")
)

// Column names, matched case-insensitively after trimming. Spaces and
// dashes in a header count as underscores, so "First Name" works too.
const (
	ColFirstName      = "first_name"
	ColLastName       = "last_name"
	ColBirthday       = "birthday"
	ColEmail          = "email"
	ColPassword       = "password"
	ColPhone          = "phone"
	ColMainCategory   = "main_category"
	ColDetailCategory = "detail_category"
	ColDepartment     = "department"
)

var requiredColumns = []string{
	ColFirstName, ColLastName, ColBirthday, ColEmail, ColPassword,
	ColMainCategory, ColDetailCategory,
}

// StaffRow is one data row. Values are trimmed but otherwise raw;
// validation happens on the write path.
type StaffRow struct {
	Line           int
	FirstName      string
	LastName       string
	Birthday       string
	Email          string
	Password       string
	Phone          string
	MainCategory   string
	DetailCategory string
	Department     string
}

// ParseStaffCSV reads a header row followed by staff rows. Blank rows are
// skipped. Columns may appear in any order; unknown columns are ignored.
func ParseStaffCSV(r io.Reader) ([]StaffRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []StaffRow
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		row := StaffRow{
			Line:           line,
			FirstName:      get(ColFirstName),
			LastName:       get(ColLastName),
			Birthday:       get(ColBirthday),
			Email:          get(ColEmail),
			Password:       get(ColPassword),
			Phone:          get(ColPhone),
			MainCategory:   get(ColMainCategory),
			DetailCategory: get(ColDetailCategory),
			Department:     get(ColDepartment),
		}
		if row.blank() {
			continue
		}
		if len(rows) == MaxRows {
			return nil, ErrTooManyRows
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r StaffRow) blank() bool {
	return r.FirstName == "" && r.LastName == "" && r.Birthday == "" &&
		r.Email == "" && r.Password == "" && r.Phone == "" &&
		r.MainCategory == "" && r.DetailCategory == "" && r.Department == ""
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := strings.ToLower(strings.TrimSpace(h))
		name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}
