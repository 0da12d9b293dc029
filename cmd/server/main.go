// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/sneha-eps/Bland-AI-Caller/internal/ai"
	"github.com/sneha-eps/Bland-AI-Caller/internal/blandai"
	"github.com/sneha-eps/Bland-AI-Caller/internal/controller"
	"github.com/sneha-eps/Bland-AI-Caller/internal/db"
	"github.com/sneha-eps/Bland-AI-Caller/internal/handler"
	"github.com/sneha-eps/Bland-AI-Caller/internal/queue"
	"github.com/sneha-eps/Bland-AI-Caller/internal/repository"
	"github.com/sneha-eps/Bland-AI-Caller/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	apiKey := os.Getenv("BLAND_API_KEY")
	if apiKey == "" {
		log.Fatal("BLAND_API_KEY not set")
	}

	// Init DB
	db.Init()
	defer db.Close()

	clientRepo := &repository.ClientRepository{DB: db.DB}
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	contactRepo := &repository.ContactRepository{DB: db.DB}
	resultRepo := &repository.ResultRepository{DB: db.DB}

	campaignService := &service.CampaignService{
		ClientRepo:   clientRepo,
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		ResultRepo:   resultRepo,
		Caller:       blandai.NewHTTPClient(apiKey),
		Summarizer:   summarizer(),
	}

	// With a broker configured, runs are handed to the worker process.
	// Without one, the in-memory queue executes them in-process.
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		q, err := queue.NewAMQPQueue(amqpURL)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ:", err)
		}
		defer q.Close()
		campaignService.Queue = q
	} else {
		q := queue.NewInMemoryQueue()
		queue.StartCampaignRunSubscriber(q, campaignService)
		campaignService.Queue = q
	}

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}
	campaignHandler := &handler.CampaignHandler{
		Service: campaignService,
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// Client routes
	r.Post("/clients", campaignController.CreateClient)
	r.Get("/clients", campaignController.ListClients)

	// Campaign routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignHandler.GetCampaignHandlerWithStats)
	r.Post("/campaigns/{id}/contacts", campaignHandler.ImportContactsHandler)
	r.Post("/campaigns/{id}/start", campaignController.StartCampaign)
	r.Get("/campaigns/{id}/analytics", campaignController.GetAnalytics)

	// Voicemail
	r.Post("/voicemail", campaignController.SendVoicemail)

	log.Println("🚀 Server running on :8080")
	log.Fatal(http.ListenAndServe(":8080", r))
}

func summarizer() ai.Summarizer {
	s := ai.NewOpenAISummarizerFromEnv()
	if s == nil {
		log.Println("OPENAI_API_KEY not set, transcript summaries disabled")
		return nil
	}
	return s
}
