package votes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"albumclub/internal/auth"
	"albumclub/pkg/database"
)

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.OpenTest(t)
	reviewID, voterID := seedReview(t, db)

	r := gin.New()
	group := r.Group("/")
	group.Use(func(c *gin.Context) {
		c.Set(auth.CtxClaimsKey, &auth.Claims{UserID: voterID})
	})
	NewHandler(NewRepo(db)).RegisterProtectedRoutes(group)

	return r, reviewID
}

func doVote(r *gin.Engine, reviewID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/reviews/"+reviewID+"/vote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestToggleEndpoint(t *testing.T) {
	r, reviewID := newTestRouter(t)

	w := doVote(r, reviewID, `{"direction":"up"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"thumbs_up":true,"thumbs_down":false}`, w.Body.String())

	// Same direction again retracts.
	w = doVote(r, reviewID, `{"direction":"up"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"thumbs_up":false,"thumbs_down":false}`, w.Body.String())
}

func TestToggleEndpointCaseInsensitiveDirection(t *testing.T) {
	r, reviewID := newTestRouter(t)

	w := doVote(r, reviewID, `{"direction":"Down"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"thumbs_up":false,"thumbs_down":true}`, w.Body.String())
}

func TestToggleEndpointBadRequests(t *testing.T) {
	r, reviewID := newTestRouter(t)

	w := doVote(r, reviewID, `{"direction":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doVote(r, reviewID, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleEndpointUnknownReview(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doVote(r, "no-such-review", `{"direction":"up"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleEndpointMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := database.OpenTest(t)
	reviewID, _ := seedReview(t, db)

	r := gin.New()
	group := r.Group("/")
	NewHandler(NewRepo(db)).RegisterProtectedRoutes(group)

	w := doVote(r, reviewID, `{"direction":"up"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
