package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internaljobs "github.com/Ciriera/examboard-scheduler/internal/jobs"
	"github.com/Ciriera/examboard-scheduler/internal/pipeline"
)

const testSecret = "test-secret"

func signedToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "test-caller",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	runner := internaljobs.NewRunner(pipeline.New(nil), 2, nil)
	runner.Start(context.Background())
	t.Cleanup(runner.Stop)

	h := NewHandler(runner, nil, nil, nil, nil)
	guard := NewAuthGuard(testSecret)
	return NewRouter(h, guard, zap.NewNop(), nil)
}

func sampleInputsPayload() InputsRequest {
	return InputsRequest{
		Projects: []ProjectDTO{
			{ID: "final-1", Kind: "FINAL", SupervisorID: "f1"},
		},
		Instructors: []InstructorDTO{
			{ID: "f1", Kind: "instructor"},
			{ID: "f2", Kind: "instructor"},
		},
		Classrooms: []ClassroomDTO{{ID: "c1"}},
		Timeslots: []TimeslotDTO{
			{ID: "t1", StartHour: 9, StartMinute: 0, EndHour: 9, EndMinute: 30},
		},
	}
}

func TestScoreEndpointRequiresAuth(t *testing.T) {
	router := newTestRouter(t)
	body, _ := json.Marshal(ScoreRequest{InputsRequest: sampleInputsPayload()})

	req := httptest.NewRequest(http.MethodPost, "/v1/score", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScoreEndpointScoresEmptyAssignments(t *testing.T) {
	router := newTestRouter(t)
	body, _ := json.Marshal(ScoreRequest{InputsRequest: sampleInputsPayload()})

	req := httptest.NewRequest(http.MethodPost, "/v1/score", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	data := payload["data"].(map[string]interface{})
	fitnessReport := data["fitness"].(map[string]interface{})
	assert.Equal(t, "F", fitnessReport["grade"])
}

func TestSubmitAndPollRun(t *testing.T) {
	router := newTestRouter(t)
	reqBody := RunRequest{InputsRequest: sampleInputsPayload(), Engine: "priority"}
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest(http.MethodPost, "/v1/runs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var submitResp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitResp))
	data := submitResp["data"].(map[string]interface{})
	runID := data["id"].(string)
	assert.NotEmpty(t, runID)

	require.Eventually(t, func() bool {
		pollReq := httptest.NewRequest(http.MethodGet, "/v1/runs/"+runID, nil)
		pollReq.Header.Set("Authorization", "Bearer "+signedToken(t))
		pollRec := httptest.NewRecorder()
		router.ServeHTTP(pollRec, pollReq)
		if pollRec.Code != http.StatusOK {
			return false
		}
		var pollResp map[string]interface{}
		_ = json.Unmarshal(pollRec.Body.Bytes(), &pollResp)
		d := pollResp["data"].(map[string]interface{})
		return d["status"] == "succeeded"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHealthEndpointNeedsNoAuth(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
