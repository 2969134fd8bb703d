package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"odl/config"

	"github.com/go-resty/resty/v2"
)

// RenderCertificate asks the external renderer service for a certificate
// document and returns its URL. Rendering is best effort: the caller stores
// an empty URL when the renderer is not configured or unavailable.
func RenderCertificate(certificateNumber, recipientName, courseName string) (string, error) {
	if config.AppConfig.CertRendererURL == "" {
		return "", fmt.Errorf("certificate renderer not configured")
	}

	client := resty.New().SetTimeout(10 * time.Second)
	resp, err := client.R().
		SetHeader("Authorization", "Bearer "+config.AppConfig.CertRendererKey).
		SetBody(map[string]string{
			"certificate_number": certificateNumber,
			"recipient_name":     recipientName,
			"course_name":        courseName,
			"issued_at":          time.Now().Format("2006-01-02"),
		}).
		Post(config.AppConfig.CertRendererURL + "/render")
	if err != nil {
		log.Printf("Certificate renderer request failed: %v", err)
		return "", err
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		log.Printf("Certificate renderer returned %d: %s", resp.StatusCode(), resp.String())
		return "", fmt.Errorf("certificate renderer returned %d", resp.StatusCode())
	}

	var renderResp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(resp.Body(), &renderResp); err != nil {
		log.Printf("Failed to parse renderer response: %v", err)
		return "", err
	}

	return renderResp.URL, nil
}
