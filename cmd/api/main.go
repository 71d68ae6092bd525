package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/bankledger/bank-service/internal/cardgen"
	"github.com/bankledger/bank-service/internal/config"
	"github.com/bankledger/bank-service/internal/handler"
	"github.com/bankledger/bank-service/internal/middleware"
	"github.com/bankledger/bank-service/internal/repository"
	"github.com/bankledger/bank-service/internal/service"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize ledger store
	store := repository.NewLedgerStore(cfg.LedgerFile, cardgen.New(), logger)
	if err := store.Load(); err != nil {
		logger.Fatalf("Failed to load ledger: %v", err)
	}

	// Initialize layers
	svc := service.NewService(store, logger, cfg)
	h := handler.NewHandler(svc, logger)

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/logout", h.Logout).Methods("POST")
	authRouter.HandleFunc("/account", h.Account).Methods("GET")
	authRouter.HandleFunc("/deposit", h.Deposit).Methods("POST")
	authRouter.HandleFunc("/withdraw", h.Withdraw).Methods("POST")
	authRouter.HandleFunc("/fd/transfer", h.TransferToFD).Methods("POST")
	authRouter.HandleFunc("/fd/withdraw", h.WithdrawFromFD).Methods("POST")
	authRouter.HandleFunc("/card/pay", h.CardPayment).Methods("POST")
	authRouter.HandleFunc("/card/debit", h.DebitCard).Methods("GET")
	authRouter.HandleFunc("/card/debit/tap-to-pay", h.TapToPay).Methods("POST")
	authRouter.HandleFunc("/card/credit", h.CreditCard).Methods("GET")
	authRouter.HandleFunc("/transactions", h.Transactions).Methods("GET")
	// Admin user management
	authRouter.HandleFunc("/users", h.ListUsers).Methods("GET")
	authRouter.HandleFunc("/users", h.CreateUser).Methods("POST")
	authRouter.HandleFunc("/users/{username}", h.EditUser).Methods("PUT")
	authRouter.HandleFunc("/users/{username}", h.DeleteUser).Methods("DELETE")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Persist the ledger a final time on shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown: %v", err)
	}
	if err := store.Save(); err != nil {
		logger.Errorf("Final ledger save failed: %v", err)
	}
}
