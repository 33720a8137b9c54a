// cmd/bulksend/main.go
//
// One-off bulk send from the command line. Dry run by default; -live sends
// real messages after an interactive confirmation.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mojohealth/whatsapp-backend/internal/db"
	"github.com/mojohealth/whatsapp-backend/internal/dispatch"
	"github.com/mojohealth/whatsapp-backend/internal/filter"
	"github.com/mojohealth/whatsapp-backend/internal/provider"
	"github.com/mojohealth/whatsapp-backend/internal/recipient"
	"github.com/mojohealth/whatsapp-backend/internal/report"
	"github.com/mojohealth/whatsapp-backend/internal/repository"
	"github.com/mojohealth/whatsapp-backend/internal/service"
)

func main() {
	live := flag.Bool("live", false, "actually send messages (default is dry run)")
	force := flag.Bool("force", false, "include recipients who were already messaged")
	status := flag.String("status", "", "only orders with this status")
	limit := flag.Int("limit", 0, "cap the number of recipients (0 = no cap)")
	filterJSON := flag.String("filter", "", "structured filter as JSON")
	templateID := flag.Int("template", 0, "template ID to send (required)")
	delay := flag.Duration("delay", 2*time.Second, "pause between live sends")
	flag.Parse()

	if *templateID == 0 {
		log.Fatal("-template is required")
	}

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
	templateRepo := &repository.TemplateRepository{DB: conn}

	template, err := templateRepo.GetActiveByID(*templateID)
	if err != nil {
		log.Fatal(err)
	}

	q := repository.RecipientQuery{
		OrderStatus: *status,
		Limit:       *limit,
		Force:       *force,
	}
	if *filterJSON != "" {
		expr, err := filter.Parse(*filterJSON)
		if err != nil {
			log.Fatal("invalid -filter: ", err)
		}
		q.Filter = expr
	}

	if *live && !confirmLive(*force) {
		fmt.Println("Aborted.")
		return
	}

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

	bulk := &service.BulkService{
		Selector:   &recipient.Selector{Orders: orderRepo},
		Dispatcher: &dispatch.Dispatcher{Provider: twilio, Orders: orderRepo, MessageLog: messageLogRepo},
		Reporter:   report.NewWriter(reportDir),
	}

	res, err := bulk.SendBulk(context.Background(), q, dispatch.Options{
		TemplateSID: template.TemplateSID,
		DryRun:      !*live,
		Delay:       *delay,
		LogToStore:  *live,
	})
	if err != nil {
		log.Fatal(err)
	}

	mode := "DRY RUN"
	if *live {
		mode = "LIVE"
	}
	fmt.Printf("\n%s complete: %d recipients, %d successful, %d failed in %.2f seconds\n",
		mode, res.Summary.Total, res.Summary.Successful, res.Summary.Failed, res.Summary.Elapsed.Seconds())
	if res.ReportPath != "" {
		fmt.Println("Report written to", res.ReportPath)
	}
}

// confirmLive asks the operator to type "yes" before any real send goes out.
func confirmLive(force bool) bool {
	fmt.Println("LIVE MODE: real WhatsApp messages will be sent.")
	if force {
		fmt.Println("WARNING: force mode includes recipients who were already messaged.")
	}
	fmt.Print("Type 'yes' to continue: ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(strings.ToLower(answer)) == "yes"
}
