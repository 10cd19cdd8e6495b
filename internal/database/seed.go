// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package database

import (
	"context"
	"fmt"

	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/models"
)

// SeedCatalog loads the built-in program catalog and a handful of demo
// students, each only when its table is empty. It is a no-op on populated
// databases, so it is safe to run on every startup when
// database.seed_catalog is enabled.
func (db *DB) SeedCatalog(ctx context.Context) error {
	if err := db.seedProgramCatalog(ctx); err != nil {
		return err
	}
	return db.seedDemoStudents(ctx)
}

func (db *DB) seedProgramCatalog(ctx context.Context) error {
	count, err := db.CountPrograms(ctx)
	if err != nil {
		return fmt.Errorf("failed to check catalog: %w", err)
	}
	if count > 0 {
		logging.Debug().Int("programs", count).Msg("Catalog already populated, skipping seed")
		return nil
	}

	programs := seedPrograms()
	for i := range programs {
		if err := db.CreateProgram(ctx, &programs[i]); err != nil {
			return fmt.Errorf("failed to seed program %q: %w", programs[i].Name, err)
		}
	}

	logging.Info().Int("programs", len(programs)).Msg("Seeded built-in program catalog")
	return nil
}

func (db *DB) seedDemoStudents(ctx context.Context) error {
	count, err := db.CountStudents(ctx)
	if err != nil {
		return fmt.Errorf("failed to check roster: %w", err)
	}
	if count > 0 {
		logging.Debug().Int("students", count).Msg("Roster already populated, skipping seed")
		return nil
	}

	students := seedStudents()
	for i := range students {
		if err := db.CreateStudent(ctx, &students[i]); err != nil {
			return fmt.Errorf("failed to seed student %q: %w", students[i].Email, err)
		}
	}

	logging.Info().Int("students", len(students)).Msg("Seeded demo students")
	return nil
}

// seedStudents returns demo students spanning the recommendation paths:
// interest-heavy profiles with grades, a grades-only profile, and a blank
// profile that exercises the popularity fallback.
func seedStudents() []models.Student {
	return []models.Student{
		{
			Name:      "Maya Chen",
			Email:     "maya.chen@demo.lodestar.dev",
			Interests: []string{"programming", "machine learning", "mathematics"},
			Grades:    map[string]float64{"math": 94, "physics": 88, "computer science": 97},
		},
		{
			Name:      "Jonas Weber",
			Email:     "jonas.weber@demo.lodestar.dev",
			Interests: []string{"design", "psychology", "media"},
			Grades:    map[string]float64{"art": 91, "english": 85, "history": 78},
		},
		{
			Name:      "Priya Nair",
			Email:     "priya.nair@demo.lodestar.dev",
			Interests: []string{"biology", "chemistry", "research"},
			Grades:    map[string]float64{"biology": 96, "chemistry": 92, "math": 81},
		},
		{
			Name:      "Tomás Silva",
			Email:     "tomas.silva@demo.lodestar.dev",
			Interests: []string{"business", "economics", "finance"},
			Grades:    map[string]float64{"math": 83, "economics": 90},
		},
		{
			Name:   "Lena Novak",
			Email:  "lena.novak@demo.lodestar.dev",
			Grades: map[string]float64{"math": 72, "english": 76, "biology": 69},
		},
		{
			Name:  "Sam Okafor",
			Email: "sam.okafor@demo.lodestar.dev",
		},
	}
}

// seedPrograms returns the built-in catalog. Tags and skills are the
// matching surface for recommendations, so each entry carries both.
func seedPrograms() []models.Program {
	return []models.Program{
		{
			Name:        "Computer Science",
			Description: "Foundations of computing: algorithms, data structures, operating systems, and software construction with an emphasis on problem solving.",
			Tags:        []string{"programming", "software", "mathematics", "technology"},
			Skills:      []string{"python", "java", "algorithms", "problem solving"},
			Requirements: models.ProgramRequirements{
				MinGrade: 75, Difficulty: "advanced", Rating: 4.6,
			},
		},
		{
			Name:        "Data Science",
			Description: "Statistical modeling, machine learning, and large-scale data engineering for turning raw data into decisions.",
			Tags:        []string{"data", "statistics", "machine learning", "technology"},
			Skills:      []string{"python", "sql", "statistics", "data visualization"},
			Requirements: models.ProgramRequirements{
				MinGrade: 75, Difficulty: "advanced", Rating: 4.7,
			},
		},
		{
			Name:        "Software Engineering",
			Description: "Designing, building, and operating reliable software systems in teams: architecture, testing, delivery pipelines, and maintenance.",
			Tags:        []string{"programming", "software", "engineering", "technology"},
			Skills:      []string{"java", "go", "system design", "testing"},
			Requirements: models.ProgramRequirements{
				MinGrade: 70, Difficulty: "intermediate", Rating: 4.5,
			},
		},
		{
			Name:        "Artificial Intelligence",
			Description: "Machine learning, neural networks, knowledge representation, and the mathematics behind modern intelligent systems.",
			Tags:        []string{"machine learning", "ai", "mathematics", "technology"},
			Skills:      []string{"python", "deep learning", "linear algebra", "research"},
			Requirements: models.ProgramRequirements{
				MinGrade: 80, Difficulty: "advanced", Rating: 4.8,
			},
		},
		{
			Name:        "Cybersecurity",
			Description: "Defending networks, systems, and data: applied cryptography, penetration testing, incident response, and security operations.",
			Tags:        []string{"security", "networking", "technology"},
			Skills:      []string{"network security", "cryptography", "linux", "risk analysis"},
			Requirements: models.ProgramRequirements{
				MinGrade: 70, Difficulty: "intermediate", Rating: 4.4,
			},
		},
		{
			Name:        "Information Systems",
			Description: "Bridging business and technology: requirements analysis, databases, enterprise systems, and IT project management.",
			Tags:        []string{"business", "technology", "data", "management"},
			Skills:      []string{"sql", "business analysis", "project management"},
			Requirements: models.ProgramRequirements{
				MinGrade: 60, Difficulty: "beginner", Rating: 4.1,
			},
		},
		{
			Name:        "Mathematics",
			Description: "Pure and applied mathematics: analysis, algebra, probability, and mathematical modeling across the sciences.",
			Tags:        []string{"mathematics", "science", "research"},
			Skills:      []string{"calculus", "linear algebra", "proof writing", "modeling"},
			Requirements: models.ProgramRequirements{
				MinGrade: 80, Difficulty: "advanced", Rating: 4.3,
			},
		},
		{
			Name:        "Applied Statistics",
			Description: "Statistical inference, experimental design, and computational statistics for research and industry practice.",
			Tags:        []string{"statistics", "data", "mathematics", "research"},
			Skills:      []string{"r", "statistics", "experimental design", "data analysis"},
			Requirements: models.ProgramRequirements{
				MinGrade: 75, Difficulty: "intermediate", Rating: 4.2,
			},
		},
		{
			Name:        "Physics",
			Description: "Classical and modern physics from mechanics and electromagnetism to quantum theory, with strong laboratory work.",
			Tags:        []string{"physics", "science", "mathematics", "research"},
			Skills:      []string{"calculus", "lab work", "modeling", "scientific writing"},
			Requirements: models.ProgramRequirements{
				MinGrade: 78, Difficulty: "advanced", Rating: 4.4,
			},
		},
		{
			Name:        "Mechanical Engineering",
			Description: "Design and analysis of mechanical systems: thermodynamics, materials, manufacturing, and computer-aided design.",
			Tags:        []string{"engineering", "design", "manufacturing"},
			Skills:      []string{"cad", "thermodynamics", "materials science", "prototyping"},
			Requirements: models.ProgramRequirements{
				MinGrade: 72, Difficulty: "intermediate", Rating: 4.3,
			},
		},
		{
			Name:        "Electrical Engineering",
			Description: "Circuits, signals, embedded systems, and power: the hardware side of modern technology.",
			Tags:        []string{"engineering", "electronics", "technology"},
			Skills:      []string{"circuit design", "embedded systems", "signal processing"},
			Requirements: models.ProgramRequirements{
				MinGrade: 75, Difficulty: "advanced", Rating: 4.4,
			},
		},
		{
			Name:        "Civil Engineering",
			Description: "Planning and building infrastructure: structural analysis, geotechnics, transportation, and construction management.",
			Tags:        []string{"engineering", "construction", "design"},
			Skills:      []string{"structural analysis", "cad", "project management"},
			Requirements: models.ProgramRequirements{
				MinGrade: 68, Difficulty: "intermediate", Rating: 4.0,
			},
		},
		{
			Name:        "Biology",
			Description: "Life from molecules to ecosystems: genetics, cell biology, evolution, and hands-on field and laboratory research.",
			Tags:        []string{"biology", "science", "research", "health"},
			Skills:      []string{"lab work", "genetics", "microscopy", "scientific writing"},
			Requirements: models.ProgramRequirements{
				MinGrade: 70, Difficulty: "intermediate", Rating: 4.2,
			},
		},
		{
			Name:        "Biochemistry",
			Description: "The chemistry of living systems: protein structure, metabolism, and molecular techniques used in medicine and industry.",
			Tags:        []string{"biology", "chemistry", "science", "health"},
			Skills:      []string{"lab work", "organic chemistry", "data analysis"},
			Requirements: models.ProgramRequirements{
				MinGrade: 76, Difficulty: "advanced", Rating: 4.3,
			},
		},
		{
			Name:        "Psychology",
			Description: "Human behavior and cognition: developmental, social, and clinical psychology with training in research methods.",
			Tags:        []string{"psychology", "social science", "health", "research"},
			Skills:      []string{"research methods", "statistics", "counseling", "writing"},
			Requirements: models.ProgramRequirements{
				MinGrade: 62, Difficulty: "beginner", Rating: 4.2,
			},
		},
		{
			Name:        "Economics",
			Description: "Micro and macroeconomic theory, econometrics, and policy analysis for understanding markets and institutions.",
			Tags:        []string{"economics", "business", "social science", "data"},
			Skills:      []string{"econometrics", "statistics", "critical thinking"},
			Requirements: models.ProgramRequirements{
				MinGrade: 68, Difficulty: "intermediate", Rating: 4.1,
			},
		},
		{
			Name:        "Business Administration",
			Description: "Management, marketing, finance, and operations with case-based learning and team projects.",
			Tags:        []string{"business", "management", "finance"},
			Skills:      []string{"leadership", "accounting", "marketing", "communication"},
			Requirements: models.ProgramRequirements{
				MinGrade: 55, Difficulty: "beginner", Rating: 4.0,
			},
		},
		{
			Name:        "Graphic Design",
			Description: "Visual communication across print and digital media: typography, branding, and interactive design tools.",
			Tags:        []string{"design", "art", "media", "creativity"},
			Skills:      []string{"typography", "illustration", "ui design", "adobe tools"},
			Requirements: models.ProgramRequirements{
				MinGrade: 55, Difficulty: "beginner", Rating: 4.2,
			},
		},
		{
			Name:        "Fine Arts",
			Description: "Studio practice in drawing, painting, and sculpture alongside art history and critical theory.",
			Tags:        []string{"art", "creativity", "history"},
			Skills:      []string{"drawing", "painting", "sculpture", "art history"},
			Requirements: models.ProgramRequirements{
				MinGrade: 50, Difficulty: "beginner", Rating: 4.1,
			},
		},
		{
			Name:        "Music Production",
			Description: "Recording, mixing, and electronic composition with professional studio tools and live session work.",
			Tags:        []string{"music", "art", "media", "creativity"},
			Skills:      []string{"audio engineering", "composition", "daw tools"},
			Requirements: models.ProgramRequirements{
				MinGrade: 50, Difficulty: "beginner", Rating: 4.3,
			},
		},
		{
			Name:        "Nursing",
			Description: "Patient care across the lifespan: anatomy, pharmacology, and extensive supervised clinical placements.",
			Tags:        []string{"health", "medicine", "science"},
			Skills:      []string{"patient care", "anatomy", "clinical judgment"},
			Requirements: models.ProgramRequirements{
				MinGrade: 70, Difficulty: "intermediate", Rating: 4.5,
			},
		},
		{
			Name:        "Environmental Science",
			Description: "Ecosystems, climate, and sustainability: field methods, environmental policy, and geospatial analysis.",
			Tags:        []string{"environment", "science", "biology", "research"},
			Skills:      []string{"field work", "gis", "data analysis", "policy analysis"},
			Requirements: models.ProgramRequirements{
				MinGrade: 65, Difficulty: "intermediate", Rating: 4.2,
			},
		},
	}
}
