// File: /services/email_service.go
package services

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"fuelroute-api/config"
	"fuelroute-api/utils"
)

type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	return &EmailService{
		config: cfg,
		dialer: dialer,
	}
}

// TripSummary carries everything the share mail renders.
type TripSummary struct {
	OriginLabel      string
	DestinationLabel string
	VehicleName      string
	DistanceKm       float64
	DurationMin      float64
	PricePerLiter    float64
	LitersNeeded     float64
	TotalCost        float64
	CostPer100Km     float64
}

// SendTripSummary mails the current estimate to the given address.
func (es *EmailService) SendTripSummary(to string, summary TripSummary) error {
	if !utils.IsValidEmail(to) {
		return fmt.Errorf("invalid recipient address: %s", to)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("FuelRoute - Trip estimate: %s → %s", summary.OriginLabel, summary.DestinationLabel))

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Trip Estimate</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { text-align: center; background: #2c7a3f; color: white; padding: 20px; border-radius: 10px 10px 0 0; }
        .content { background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px; }
        .figure { background: #e9ecef; padding: 16px; border-radius: 8px; margin: 12px 0; }
        .figure .value { font-size: 24px; font-weight: bold; color: #2c7a3f; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>FuelRoute</h1>
            <p>Trip cost estimate</p>
        </div>
        <div class="content">
            <p><strong>From:</strong> %s</p>
            <p><strong>To:</strong> %s</p>
            <p><strong>Vehicle:</strong> %s</p>
            <p><strong>Distance:</strong> %.1f km (about %.0f min)</p>

            <div class="figure">
                <p>Estimated total cost</p>
                <div class="value">%.2f EUR</div>
                <p><small>%.1f L of fuel at %.3f EUR/L — %.2f EUR per 100 km</small></p>
            </div>

            <p>Estimate based on the fuel price at the time of calculation.</p>
        </div>
    </div>
</body>
</html>`,
		summary.OriginLabel, summary.DestinationLabel, summary.VehicleName,
		summary.DistanceKm, summary.DurationMin,
		summary.TotalCost, summary.LitersNeeded, summary.PricePerLiter, summary.CostPer100Km)

	textBody := fmt.Sprintf(`FuelRoute trip estimate

From: %s
To: %s
Vehicle: %s
Distance: %.1f km (about %.0f min)

Estimated total cost: %.2f EUR
Fuel needed: %.1f L at %.3f EUR/L (%.2f EUR per 100 km)

Estimate based on the fuel price at the time of calculation.
`,
		summary.OriginLabel, summary.DestinationLabel, summary.VehicleName,
		summary.DistanceKm, summary.DurationMin,
		summary.TotalCost, summary.LitersNeeded, summary.PricePerLiter, summary.CostPer100Km)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	return es.dialer.DialAndSend(m)
}
