package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed segments.sql
var segmentsSQL string

//go:embed graph.sql
var graphSQL string

// Function lists for verification
var SegmentsFunctions = []string{
	"init_segments",
	"upsert_segment",
	"select_segments_by_similarity",
	"select_segments_by_argument",
	"delete_segments_by_argument",
	"count_segments",
}

var GraphFunctions = []string{
	"init_graph",
	"upsert_node",
	"upsert_relationship",
	"select_node",
	"count_relationships",
	"select_issue_neighbors",
	"expand_issue",
	"search_issues",
	"select_arguments_for_issues",
	"select_arguments_by_lawyer",
	"select_argument_boost_signals",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadSegmentsSql loads the argument segment SQL functions
func LoadSegmentsSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "segments", segmentsSQL, SegmentsFunctions, force)
}

// LoadGraphSql loads the node and relationship SQL functions
func LoadGraphSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "graph", graphSQL, GraphFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadSegmentsSql(db, force); err != nil {
		return err
	}

	if err := LoadGraphSql(db, force); err != nil {
		return err
	}

	return nil
}

// loadFunctions executes the SQL file unless all of its functions exist already.
// With force the file is executed in any case.
func loadFunctions(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required %s SQL functions were created", name)
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
