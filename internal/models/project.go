package models

import (
	"time"

	"github.com/araddon/dateparse"
)

// Level is the self-assessed difficulty of a project
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// DefaultLevel is used when the data carries no recognizable level
const DefaultLevel = LevelIntermediate

// Valid reports whether l is one of the known levels
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Links holds the optional external links of a project
type Links struct {
	Demo    string `json:"demo,omitempty"`
	Code    string `json:"code,omitempty"`
	Article string `json:"article,omitempty"`
}

// Empty reports whether no link is set
func (l Links) Empty() bool {
	return l.Demo == "" && l.Code == "" && l.Article == ""
}

// Project represents a validated portfolio project
type Project struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Technologies []string `json:"technologies"`
	Date         string   `json:"date"`
	Level        Level    `json:"level"`
	Image        string   `json:"image,omitempty"`
	Links        Links    `json:"links"`
	Featured     bool     `json:"featured"`
}

// ParsedDate returns the project date as a time. Validated projects always
// carry a parseable date; the zero time is returned otherwise.
func (p Project) ParsedDate() time.Time {
	t, err := dateparse.ParseAny(p.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CategoryCount pairs a category with the number of projects in it
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
