// Package reports renders the administrator views of the user base: a
// plain-text report, a CSV export and demographic counts.
package reports

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/runreward/runreward/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	frDate = "02/01/2006"
	frTime = "15:04:05"
	isoDay = "2006-01-02"
)

// title capitalizes each word of a name. A Caser is not safe for
// concurrent use, so each call builds its own.
func title(s string) string {
	return cases.Title(language.French).String(s)
}

// frenchDate formats an ISO day as dd/mm/yyyy and returns anything else
// unchanged.
func frenchDate(s string) string {
	t, err := time.Parse(isoDay, s)
	if err != nil {
		return s
	}
	return t.Format(frDate)
}

func statusLabel(s models.UserStatus) string {
	if s == models.UserCompleted {
		return "Inscription validée"
	}
	return "En attente"
}

//go:embed users_report.tmpl
var usersReportText string

var usersReportTmpl = template.Must(template.New("users").Funcs(template.FuncMap{
	"inc":    func(i int) int { return i + 1 },
	"day":    func(t time.Time) string { return t.Format(frDate) },
	"isoday": frenchDate,
	"title":  title,
	"status": statusLabel,
	"of":     Of,
}).Parse(usersReportText))

type usersReport struct {
	Day   string
	Time  string
	Users []models.User
	Stats Demographics
}

// UsersReport renders the administrator report for users as of now.
func UsersReport(users []models.User, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := usersReportTmpl.Execute(&buf, usersReport{
		Day:   now.Format(frDate),
		Time:  now.Format(frTime),
		Users: users,
		Stats: NewDemographics(users),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render users report: %w", err)
	}
	return buf.String(), nil
}

// ReportFileName is the download name of the report generated on now.
func ReportFileName(now time.Time) string {
	return "rapport-admin-runreward-" + now.Format(isoDay) + ".txt"
}

// CSVFileName is the download name of the CSV export generated on now.
func CSVFileName(now time.Time) string {
	return "utilisateurs-runreward-" + now.Format(isoDay) + ".csv"
}

var csvHeader = []string{
	"Prénom", "Nom", "Email", "Adresse", "Ville", "Code Postal",
	"Date de naissance", "Sexe", "Pointure", "Date inscription", "Statut",
}

// WriteUsersCSV writes one row per user after a French header row.
func WriteUsersCSV(w io.Writer, users []models.User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, u := range users {
		row := []string{
			u.FirstName,
			u.LastName,
			u.Email,
			u.Address,
			u.City,
			u.PostalCode,
			frenchDate(u.BirthDate),
			u.Gender,
			u.ShoeSize,
			u.InscriptionDate.Format(frDate),
			string(u.Status),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
