package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	"caseguard/config"
	"caseguard/notification"
	"caseguard/repository"
	"caseguard/routes"
	"caseguard/schema"
	"caseguard/service"
	"caseguard/template"
	"caseguard/worker"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize database connection (UTC for consistent timestamps)
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Database connection established")

	// Own tables get created if missing; case-system tables only get verified
	schema.InitializeDatabase(db)
	schema.ValidateRequiredColumns(db, nil)

	// Initialize repositories
	ruleRepo := repository.NewRuleRepository(db)
	logRepo := repository.NewEscalationLogRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	userRepo := repository.NewUserRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	dispatchRepo := repository.NewDispatchRepository(db)

	// Initialize notification channels
	senders := []notification.Sender{
		notification.NewEmailSender(),
		notification.NewSMSSender(cfg.SMS.APIURL, cfg.SMS.APIKey, cfg.SMS.SenderID),
		notification.NewInAppSender(dispatchRepo),
	}

	// Initialize services
	templateCache := template.NewCache(templateRepo, cfg.Template.CacheTTL)
	engine := template.NewEngine()
	auditSink := service.NewDBAuditSink(dispatchRepo)
	resolver := service.NewTargetResolver(userRepo)
	dispatcher := service.NewDispatcher(senders, auditSink, cfg.Dispatch.Workers, cfg.Dispatch.SendTimeout, cfg.SMS.CountryCode)
	notifier := service.NewNotifier(templateCache, engine, resolver, dispatcher)
	ledger := service.NewEscalationLedger(logRepo, caseRepo, auditSink)
	evaluator := service.NewRuleEvaluator(ruleRepo, caseRepo, logRepo, ledger, notifier)

	// Start the scheduled escalation sweep
	escalationWorker := worker.NewEscalationWorker(evaluator, cfg.Sweep.Schedule)
	if err := escalationWorker.Start(); err != nil {
		log.Fatalf("Failed to start escalation worker: %v", err)
	}
	defer escalationWorker.Stop()

	// Setup routes
	router := routes.SetupRoutes(ledger, notifier, escalationWorker, templateCache, userRepo)

	// Add CORS middleware
	corsHandler := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")

			// Handle preflight requests
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}

	// Wrap router with CORS middleware
	handler := corsHandler(router)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
