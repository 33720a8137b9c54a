// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/mojohealth/whatsapp-backend/internal/controller"
	"github.com/mojohealth/whatsapp-backend/internal/db"
	"github.com/mojohealth/whatsapp-backend/internal/dispatch"
	"github.com/mojohealth/whatsapp-backend/internal/handler"
	"github.com/mojohealth/whatsapp-backend/internal/provider"
	"github.com/mojohealth/whatsapp-backend/internal/queue"
	"github.com/mojohealth/whatsapp-backend/internal/recipient"
	"github.com/mojohealth/whatsapp-backend/internal/report"
	"github.com/mojohealth/whatsapp-backend/internal/repository"
	"github.com/mojohealth/whatsapp-backend/internal/scheduler"
	"github.com/mojohealth/whatsapp-backend/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on OS environment variables")
	}

	conn, err := db.Open()
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	orderRepo := &repository.OrderRepository{DB: conn}
	messageLogRepo := &repository.MessageLogRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	campaignLogRepo := &repository.CampaignLogRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}

	twilio := provider.NewTwilioProvider(
		os.Getenv("TWILIO_ACCOUNT_SID"),
		os.Getenv("TWILIO_AUTH_TOKEN"),
		os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		os.Getenv("TWILIO_MESSAGING_SERVICE_SID"),
	)

	reportDir := os.Getenv("REPORT_DIR")
	if reportDir == "" {
		reportDir = "reports"
	}

	bulkService := &service.BulkService{
		Selector:   &recipient.Selector{Orders: orderRepo},
		Dispatcher: &dispatch.Dispatcher{Provider: twilio, Orders: orderRepo, MessageLog: messageLogRepo},
		Reporter:   report.NewWriter(reportDir),
	}

	registry := scheduler.NewRegistry()
	defer registry.Stop()

	delaySecs, _ := strconv.Atoi(os.Getenv("MESSAGE_DELAY_SECONDS"))
	runner := &service.CampaignRunner{
		Campaigns:    campaignRepo,
		CampaignLogs: campaignLogRepo,
		Templates:    templateRepo,
		Bulk:         bulkService,
		Registry:     registry,
		Delay:        time.Duration(delaySecs) * time.Second,
	}

	// With AMQP_URL set, run-now jobs go to RabbitMQ and the worker binary
	// executes them; otherwise an in-process subscriber handles them.
	var q queue.Queue
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		aq, err := queue.NewAMQPQueue(amqpURL)
		if err != nil {
			log.Fatal("connecting to RabbitMQ: ", err)
		}
		defer aq.Close()
		q = aq
		log.Println("Publishing campaign runs to RabbitMQ")
	} else {
		mq := queue.NewInMemoryQueue()
		queue.StartCampaignRunSubscriber(mq, runner)
		q = mq
	}

	campaignService := &service.CampaignService{
		Campaigns:    campaignRepo,
		CampaignLogs: campaignLogRepo,
		Templates:    templateRepo,
		Registry:     registry,
		Runner:       runner,
		Queue:        q,
	}
	templateService := &service.TemplateService{Templates: templateRepo}

	// Re-arm scheduled campaigns that survived a restart.
	if err := campaignService.Rehydrate(); err != nil {
		log.Fatal("rehydrating scheduled campaigns: ", err)
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}
	templateHandler := &handler.TemplateHandler{
		Service:     templateService,
		MessageLogs: messageLogRepo,
	}

	r := chi.NewRouter()

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Put("/campaigns/{id}", campaignController.UpdateCampaign)
	r.Delete("/campaigns/{id}", campaignController.DeleteCampaign)
	r.Post("/campaigns/{id}/run", campaignController.RunCampaign)
	r.Get("/campaigns/{id}/logs", campaignController.GetCampaignLogs)

	// Template and message log routes
	r.Post("/templates", templateHandler.CreateTemplateHandler)
	r.Get("/templates", templateHandler.ListTemplatesHandler)
	r.Get("/messages/recent", templateHandler.RecentMessagesHandler)

	log.Println("Server running on :8080")
	log.Fatal(http.ListenAndServe(":8080", r))
}
