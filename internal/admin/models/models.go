// Package models defines the admin dashboard DTOs.
package models

import "time"

// Overview is the operational snapshot served at the admin stats endpoint.
type Overview struct {
	Users         int       `json:"users"`
	Plans         int       `json:"plans"`
	Subscriptions int       `json:"subscriptions"`
	ChecksToday   int       `json:"checks_today"`
	GeneratedAt   time.Time `json:"generated_at"`
}
