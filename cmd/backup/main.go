package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gramtrack/internal/config"
	"gramtrack/internal/database"
	"gramtrack/internal/logger"
	"gramtrack/internal/service"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importInput := importCmd.String("input", "", "Input file path (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, true)
	defer log.Sync()

	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", logger.Error(err))
	}
	defer db.Close()

	backupService := service.NewBackupService(db, log)

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])

		output := *exportOutput
		if output == "" {
			output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
		}
		if err := backupService.Export(output); err != nil {
			log.Fatal("export failed", logger.Error(err))
		}
		abs, _ := filepath.Abs(output)
		log.Info("backup written", logger.String("path", abs))

	case "import":
		importCmd.Parse(os.Args[2:])

		if *importInput == "" {
			fmt.Fprintln(os.Stderr, "Error: -input is required")
			importCmd.Usage()
			os.Exit(1)
		}
		if err := backupService.Import(*importInput); err != nil {
			log.Fatal("import failed", logger.Error(err))
		}
		log.Info("backup restored", logger.String("path", *importInput))

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  backup export [-output <file>]   Export users and settings to JSON")
	fmt.Println("  backup import -input <file>      Restore users and settings from JSON")
}
