package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"insightpaper/internal/config"
	"insightpaper/internal/database"
	"insightpaper/internal/export"
	"insightpaper/internal/repository"
)

func main() {
	// Define subcommands
	usersCmd := flag.NewFlagSet("users", flag.ExitOnError)
	courseCmd := flag.NewFlagSet("course", flag.ExitOnError)

	usersOutput := usersCmd.String("output", "", "Output file path (default: users_YYYYMMDD_HHMMSS.xlsx)")
	courseID := courseCmd.Int64("id", 0, "Course ID (required)")
	courseOutput := courseCmd.String("output", "", "Output file path (default: students_<id>_YYYYMMDD_HHMMSS.xlsx)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "users":
		usersCmd.Parse(os.Args[2:])
		if err := exportUsers(ctx, repository.NewUserRepository(db), *usersOutput); err != nil {
			log.Fatalf("Export failed: %v", err)
		}

	case "course":
		courseCmd.Parse(os.Args[2:])
		if *courseID <= 0 {
			fmt.Println("Error: -id flag is required")
			courseCmd.PrintDefaults()
			os.Exit(1)
		}
		if err := exportCourse(ctx, repository.NewCourseRepository(db), *courseID, *courseOutput); err != nil {
			log.Fatalf("Export failed: %v", err)
		}

	default:
		printUsage()
		os.Exit(1)
	}
}

func exportUsers(ctx context.Context, users *repository.UserRepository, outputPath string) error {
	if outputPath == "" {
		outputPath = fmt.Sprintf("users_%s.xlsx", time.Now().Format("20060102_150405"))
	}
	list, err := users.GetAll(ctx)
	if err != nil {
		return err
	}
	data, err := export.Users(list)
	if err != nil {
		return err
	}
	log.Printf("Exporting %d users to: %s", len(list), outputPath)
	return writeFile(outputPath, data)
}

func exportCourse(ctx context.Context, courses *repository.CourseRepository, courseID int64, outputPath string) error {
	if outputPath == "" {
		outputPath = fmt.Sprintf("students_%d_%s.xlsx", courseID, time.Now().Format("20060102_150405"))
	}
	// User 0 is the system actor, which the procedures do not restrict.
	course, err := courses.GetByID(ctx, 0, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return fmt.Errorf("course %d not found", courseID)
	}
	students, err := courses.GetStudents(ctx, courseID)
	if err != nil {
		return err
	}
	data, err := export.Students(course, students)
	if err != nil {
		return err
	}
	log.Printf("Exporting %d students of %q to: %s", len(students), course.Name, outputPath)
	return writeFile(outputPath, data)
}

func writeFile(outputPath string, data []byte) error {
	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	log.Printf("Export complete! File size: %.2f KB", float64(len(data))/1024)
	return nil
}

func printUsage() {
	fmt.Println("InsightPaper Export Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  export users [options]     Export every user to a spreadsheet")
	fmt.Println("  export course [options]    Export a course's students to a spreadsheet")
	fmt.Println()
	fmt.Println("Users Options:")
	fmt.Println("  -output <file>    Output file path (default: users_YYYYMMDD_HHMMSS.xlsx)")
	fmt.Println()
	fmt.Println("Course Options:")
	fmt.Println("  -id <courseId>    Course ID (required)")
	fmt.Println("  -output <file>    Output file path")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlserver, postgres, or mysql (default: sqlserver)")
	fmt.Println("  DB_URL           Connection URL (overrides DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME)")
}
