// Package demo seeds a small credit-insurance database so the tool is
// usable out of the box. Seeding is deterministic: the same schema and
// rows every run.
package demo

import (
	"database/sql"
	"fmt"
	"math/rand"

	"github.com/dwmorris/sqlpilot/internal/errors"
)

const seed = 42

var ddl = []string{
	`CREATE TABLE organizations (
		org_id INTEGER PRIMARY KEY,
		org_code TEXT NOT NULL,
		org_name TEXT NOT NULL,
		city TEXT,
		country_code TEXT
	)`,
	`CREATE TABLE policies (
		policy_id INTEGER PRIMARY KEY,
		policy_number TEXT NOT NULL,
		org_id INTEGER NOT NULL,
		inception_date TEXT,
		expiry_date TEXT,
		currency TEXT,
		status TEXT,
		credit_limit REAL,
		org_name_dn TEXT
	)`,
	`CREATE TABLE claims (
		claim_id INTEGER PRIMARY KEY,
		policy_id INTEGER NOT NULL,
		claim_number TEXT NOT NULL,
		created_at TEXT,
		amount REAL,
		status TEXT
	)`,
	`CREATE TABLE users (
		user_id INTEGER PRIMARY KEY,
		username TEXT NOT NULL,
		role TEXT,
		org_id INTEGER
	)`,
}

var (
	orgNames = []string{
		"Acme Insurance", "Globex Underwriters", "Initech Cover",
		"Umbrella Risk", "Stark Assurance", "Wayne Mutual",
		"Hooli Surety", "Pied Piper Re", "Vandelay Indemnity", "Wonka Casualty",
	}
	cities        = []string{"London", "Paris", "Madrid", "Berlin", "Dublin", "Lisbon"}
	countries     = []string{"GB", "FR", "ES", "DE", "IE", "PT"}
	currencies    = []string{"EUR", "USD", "GBP"}
	policyStatus  = []string{"ACTIVE", "ACTIVE", "ACTIVE", "EXPIRED", "CANCELLED"}
	claimStatus   = []string{"OPEN", "OPEN", "PAID", "REJECTED"}
	userRoles     = []string{"underwriter", "analyst", "admin", "broker"}
	inceptionYear = []string{"2023", "2024", "2025"}
)

// Seed creates and populates the demo schema. It fails if the tables
// already exist.
func Seed(db *sql.DB) error {
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, "failed to create demo schema")
		}
	}

	rng := rand.New(rand.NewSource(seed))

	for i := 0; i < len(orgNames); i++ {
		_, err := db.Exec(
			`INSERT INTO organizations (org_id, org_code, org_name, city, country_code) VALUES (?, ?, ?, ?, ?)`,
			i+1, fmt.Sprintf("ORG%03d", i+1), orgNames[i],
			cities[rng.Intn(len(cities))], countries[rng.Intn(len(countries))],
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, "failed to seed organizations")
		}
	}

	policyCount := 60
	for i := 0; i < policyCount; i++ {
		year := inceptionYear[rng.Intn(len(inceptionYear))]
		month := rng.Intn(12) + 1
		day := rng.Intn(28) + 1

		_, err := db.Exec(
			`INSERT INTO policies (policy_id, policy_number, org_id, inception_date, expiry_date, currency, status, credit_limit, org_name_dn)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i+1, fmt.Sprintf("POL-%05d", i+1), rng.Intn(len(orgNames))+1,
			fmt.Sprintf("%s-%02d-%02d", year, month, day),
			fmt.Sprintf("%d-%02d-%02d", atoi(year)+1, month, day),
			currencies[rng.Intn(len(currencies))],
			policyStatus[rng.Intn(len(policyStatus))],
			float64(rng.Intn(900)+100)*1000,
			orgNames[rng.Intn(len(orgNames))],
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, "failed to seed policies")
		}
	}

	claimCount := 120
	for i := 0; i < claimCount; i++ {
		year := inceptionYear[rng.Intn(len(inceptionYear))]

		_, err := db.Exec(
			`INSERT INTO claims (claim_id, policy_id, claim_number, created_at, amount, status) VALUES (?, ?, ?, ?, ?, ?)`,
			i+1, rng.Intn(policyCount)+1, fmt.Sprintf("CLM-%05d", i+1),
			fmt.Sprintf("%s-%02d-%02d", year, rng.Intn(12)+1, rng.Intn(28)+1),
			float64(rng.Intn(50000)+500),
			claimStatus[rng.Intn(len(claimStatus))],
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, "failed to seed claims")
		}
	}

	userCount := 25
	for i := 0; i < userCount; i++ {
		_, err := db.Exec(
			`INSERT INTO users (user_id, username, role, org_id) VALUES (?, ?, ?, ?)`,
			i+1, fmt.Sprintf("user%02d", i+1),
			userRoles[rng.Intn(len(userRoles))],
			rng.Intn(len(orgNames))+1,
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, "failed to seed users")
		}
	}

	return nil
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}

	return n
}
