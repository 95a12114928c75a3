// Package export renders records as .xlsx workbooks.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"insightpaper/internal/models"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const dateLayout = "2006-01-02 15:04"

// Sheet is one worksheet: a header row and the data rows below it.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Build writes sheets into a new workbook and returns its bytes.
func Build(sheets ...Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE6F1"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range sheets {
		name := sheetName(sheet.Name)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
		if err := writeSheet(f, name, sheet, header); err != nil {
			return nil, fmt.Errorf("failed to write sheet %s: %w", name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, sheet Sheet, headerStyle int) error {
	for col, h := range sheet.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}
	if n := len(sheet.Headers); n > 0 {
		last, _ := excelize.CoordinatesToCellName(n, 1)
		if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return err
		}
		lastCol, _ := excelize.ColumnNumberToName(n)
		if err := f.SetColWidth(name, "A", lastCol, 22); err != nil {
			return err
		}
	}
	for r, row := range sheet.Rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// sheetName trims to Excel's 31 characters and drops the forbidden ones.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return -1
		}
		return r
	}, name)
	if strings.TrimSpace(name) == "" {
		name = "Sheet1"
	}
	if len([]rune(name)) > 31 {
		name = string([]rune(name)[:31])
	}
	return strings.TrimSpace(name)
}

func formatTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(dateLayout)
}

// Users lists accounts for administrators.
func Users(users []models.User) ([]byte, error) {
	sheet := Sheet{Name: "Users", Headers: []string{"ID", "Name", "Email", "Roles", "2FA", "Created"}}
	for _, u := range users {
		twoFA := "No"
		if u.DoubleFactorEnabled {
			twoFA = "Yes"
		}
		sheet.Rows = append(sheet.Rows, []any{u.UserID, u.Name, u.Email, strings.Join(u.RoleNames(), ", "), twoFA, formatTime(u.CreatedAt)})
	}
	return Build(sheet)
}

// Students lists the students of one course.
func Students(course *models.Course, students []models.Student) ([]byte, error) {
	sheet := Sheet{Name: course.Name, Headers: []string{"ID", "Name", "Email", "Joined"}}
	for _, s := range students {
		sheet.Rows = append(sheet.Rows, []any{s.UserID, s.Name, s.Email, formatTime(s.JoinedAt)})
	}
	return Build(sheet)
}

// Questions lists questions with their answers and feedback.
func Questions(questions []models.Question) ([]byte, error) {
	sheet := Sheet{Name: "Questions", Headers: []string{"ID", "User", "Question", "Answer", "Feedback", "Asked"}}
	for _, q := range questions {
		var feedback any = ""
		if q.Feedback != nil {
			feedback = *q.Feedback
		}
		sheet.Rows = append(sheet.Rows, []any{q.QuestionID, q.UserID, q.Question, q.Answer, feedback, formatTime(q.CreatedAt)})
	}
	return Build(sheet)
}

// Filename builds an attachment name like "students_databases.xlsx".
func Filename(parts ...string) string {
	var cleaned []string
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		p = strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
				return r
			case r == ' ' || r == '_':
				return '_'
			default:
				return -1
			}
		}, p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return "export.xlsx"
	}
	return strings.Join(cleaned, "_") + ".xlsx"
}
