package main

import (
	"encoding/json"
	"log"
	"net/http"
	"net/smtp"
	"os"
	"sync/atomic"

	"blood-donation-backend/pkg/config"
	"blood-donation-backend/pkg/middleware"
	"blood-donation-backend/pkg/queue"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	cfg       *config.Config
	mailsSent atomic.Int64
)

func main() {
	cfg = config.Load()

	conn, ch, err := queue.ConnectRabbitMQ(cfg.AMQPURI)
	if err != nil {
		log.Fatalf("[ERROR] Failed to connect to RabbitMQ: %v", err)
	}
	defer conn.Close()
	defer ch.Close()
	log.Println("[OK] Connected to RabbitMQ")

	msgs, err := queue.ConsumeMessages(ch, cfg.MailQueue)
	if err != nil {
		log.Fatalf("[ERROR] Failed to consume queue: %v", err)
	}
	log.Printf("[INFO] Listening to queue '%s'", cfg.MailQueue)

	go consumeMailEvents(msgs)

	middleware.RegisterMetrics()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", middleware.GetMetricsHandler())

	handler := middleware.Trace(middleware.Metrics(middleware.Logger(mux)))

	port := os.Getenv("MAILER_PORT")
	if port == "" {
		port = "8083"
	}

	log.Printf("[INFO] Mailer Service running on port :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("[ERROR] Server failed: %v", err)
	}
}

func consumeMailEvents(msgs <-chan amqp.Delivery) {
	for d := range msgs {
		var event queue.MailEvent
		if err := json.Unmarshal(d.Body, &event); err != nil {
			log.Printf("[WARN] Failed to parse mail event: %v", err)
			continue
		}

		content, err := renderTemplate(event.Template, event.Data)
		if err != nil {
			log.Printf("[WARN] Dropping mail event: %v", err)
			continue
		}

		// No retries: a failed send is logged once and the event is gone.
		if err := sendMail(event.To, event.Subject, content); err != nil {
			log.Printf("[ERROR] Failed to send mail to %s: %v", event.To, err)
			continue
		}

		mailsSent.Add(1)
		log.Printf("[OK] Mail sent - To: %s, Template: %s", event.To, event.Template)
	}
}

func sendMail(to, subject, content string) error {
	msg := []byte("From: " + cfg.SMTPFrom + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		content + "\r\n")

	addr := cfg.SMTPHost + ":" + cfg.SMTPPort

	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}

	return smtp.SendMail(addr, auth, cfg.SMTPFrom, []string{to}, msg)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     "UP",
		"service":    "mailer-service",
		"mails_sent": mailsSent.Load(),
	})
}
