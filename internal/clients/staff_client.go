package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// StaffClient resolves project role membership against staff-service. The
// approval engine treats it as the authority on who counts as an expert,
// reviewer, client or owner for a project.
type StaffClient struct {
	baseURL    string
	httpClient *http.Client
}

type projectRoleResponse struct {
	HasRole bool `json:"has_role"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewStaffClient creates a new staff client
func NewStaffClient() *StaffClient {
	baseURL := os.Getenv("STAFF_SERVICE_URL")
	if baseURL == "" {
		baseURL = "http://staff-service.devtest.svc.cluster.local:8080"
	}

	return &StaffClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// HasProjectRole checks whether the actor holds the given role on the project
func (c *StaffClient) HasProjectRole(ctx context.Context, tenantID string, actorID, projectID uuid.UUID, role string) (bool, error) {
	url := fmt.Sprintf("%s/api/v1/internal/projects/%s/members/%s/roles/%s",
		c.baseURL, projectID.String(), actorID.String(), role)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Tenant-ID", tenantID)
	req.Header.Set("X-Internal-Service", "timesheet-service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to call staff-service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	var roleResp projectRoleResponse
	if err := json.NewDecoder(resp.Body).Decode(&roleResp); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		errMsg := "unknown error"
		if roleResp.Error != nil {
			errMsg = roleResp.Error.Message
		}
		return false, fmt.Errorf("staff-service returned error: %s", errMsg)
	}

	return roleResp.HasRole, nil
}
