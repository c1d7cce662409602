// internal/app/features/users/import.go
package users

import (
	"errors"
	"net/http"

	"github.com/dalemusser/staffdir/internal/app/system/csvutil"
	"github.com/dalemusser/staffdir/internal/app/system/passhash"
	"github.com/dalemusser/staffdir/internal/app/system/timeouts"
	"github.com/dalemusser/staffdir/internal/app/system/userval"
	"github.com/dalemusser/staffdir/internal/domain/models"
	"go.uber.org/zap"
)

type importRow struct {
	Line   int            `json:"line"`
	ID     string         `json:"id,omitempty"`
	Errors userval.Errors `json:"errors,omitempty"`
}

type importResponse struct {
	Created int         `json:"created"`
	Failed  int         `json:"failed"`
	Rows    []importRow `json:"rows"`
}

// Import handles POST /users/import with a text/csv body. Each row goes
// through the same write path as Create; a bad row never blocks the rest.
//
//	200 with per-row results
//	400 when the CSV itself is unreadable or lacks required columns
//	413 when the body exceeds csvutil.MaxUploadSize
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	rows, err := csvutil.ParseStaffCSV(r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := importResponse{Rows: make([]importRow, 0, len(rows))}
	for _, row := range rows {
		res := h.importRow(r, row)
		if res.ID != "" {
			resp.Created++
		} else {
			resp.Failed++
		}
		resp.Rows = append(resp.Rows, res)
	}

	h.Log.Info("staff import finished",
		zap.Int("created", resp.Created),
		zap.Int("failed", resp.Failed))
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) importRow(r *http.Request, row csvutil.StaffRow) importRow {
	res := importRow{Line: row.Line}

	u, ferr := staffUser(row)
	if ferr != nil {
		res.Errors = withBirthdayError(u, *ferr, true)
		return res
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "users.import")
	defer cancel()

	created, err := h.Store.Create(ctx, u)
	if err != nil {
		res.Errors = rowErrors(err)
		if res.Errors == nil {
			h.Log.Error("import row failed", zap.Int("line", row.Line), zap.Error(err))
			res.Errors = userval.Errors{{Message: "internal error"}}
		}
		return res
	}

	h.Audit.UserCreated(ctx, r, created)
	res.ID = created.ID.Hex()
	return res
}

// staffUser maps a CSV row onto a user. The user is built even when the
// birthday is unreadable, so the rest of the row can still be checked.
func staffUser(row csvutil.StaffRow) (models.User, *userval.FieldError) {
	birthday, ferr := parseBirthday(row.Birthday)
	return models.User{
		Identity: models.Identity{
			FirstName:  row.FirstName,
			LastName:   row.LastName,
			BirthdayAt: birthday,
		},
		Email:    row.Email,
		Password: row.Password,
		Phone:    row.Phone,
		UserCategory: models.UserCategory{
			MainCategory:   row.MainCategory,
			DetailCategory: row.DetailCategory,
		},
		Department: row.Department,
	}, ferr
}

// rowErrors returns the field errors carried by err, or nil when err is
// not a validation or duplicate failure.
func rowErrors(err error) userval.Errors {
	if verrs, ok := userval.AsErrors(err); ok {
		return verrs
	}
	var fe userval.FieldError
	if errors.As(err, &fe) {
		return userval.Errors{fe}
	}
	if errors.Is(err, passhash.ErrHashingFailure) {
		return userval.Errors{{
			Field:   userval.FieldPassword,
			Kind:    userval.HashingFailure,
			Message: "password could not be stored",
		}}
	}
	return nil
}
