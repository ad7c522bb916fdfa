package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/maynagashev/roomkeeper/internal/models"
	"github.com/maynagashev/roomkeeper/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var someReservation = map[string]string{
	"startDate": "d1",
	"endDate":   "d2",
	"room":      "r",
	"user":      "u",
}

type testClient struct {
	t     *testing.T
	url   string
	token string
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	srv := server.New(server.Config{TokenSecret: []byte("test-secret")})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testClient{t: t, url: ts.URL}
}

// do выполняет запрос и возвращает статус и тело ответа.
func (c *testClient) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.url+path, reader)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, respBody
}

func (c *testClient) login() {
	c.t.Helper()
	creds := models.Credentials{UserName: "someUserName", Password: "somePassword"}

	status, body := c.do(http.MethodPost, "/register", creds)
	require.Equal(c.t, http.StatusCreated, status, string(body))
	var reg models.RegisterResponse
	require.NoError(c.t, json.Unmarshal(body, &reg))
	require.NotEmpty(c.t, reg.UserID)

	status, body = c.do(http.MethodPost, "/login", creds)
	require.Equal(c.t, http.StatusCreated, status, string(body))
	var login models.LoginResponse
	require.NoError(c.t, json.Unmarshal(body, &login))
	require.NotEmpty(c.t, login.Token)
	c.token = login.Token
}

func (c *testClient) create(payload any) string {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/reservations", payload)
	require.Equal(c.t, http.StatusCreated, status, string(body))
	var resp models.CreateReservationResponse
	require.NoError(c.t, json.Unmarshal(body, &resp))
	require.NotEmpty(c.t, resp.ReservationID)
	return resp.ReservationID
}

func message(t *testing.T, body []byte) string {
	t.Helper()
	var msg string
	require.NoError(t, json.Unmarshal(body, &msg), string(body))
	return msg
}

func TestServer_ReservationLifecycle(t *testing.T) {
	c := newTestClient(t)
	c.login()

	id := c.create(someReservation)

	status, body := c.do(http.MethodGet, "/reservations/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":"`+id+`","startDate":"d1","endDate":"d2","room":"r","user":"u"}`, string(body))

	// Повторный GET без записи между ними дает то же тело
	_, again := c.do(http.MethodGet, "/reservations/"+id, nil)
	assert.Equal(t, body, again)

	status, body = c.do(http.MethodPut, "/reservations/"+id, map[string]string{"startDate": "d3", "endDate": "d4"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Updated startDate,endDate of reservation "+id, message(t, body))

	status, body = c.do(http.MethodGet, "/reservations/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	var updated models.Reservation
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, models.Reservation{ID: id, StartDate: "d3", EndDate: "d4", Room: "r", User: "u"}, updated)

	status, body = c.do(http.MethodDelete, "/reservations/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Deleted reservation with id "+id, message(t, body))

	status, body = c.do(http.MethodGet, "/reservations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Reservation with id "+id+" not found", message(t, body))

	status, _ = c.do(http.MethodDelete, "/reservations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_GetAllAfterNPosts(t *testing.T) {
	c := newTestClient(t)
	c.login()

	status, body := c.do(http.MethodGet, "/reservations/all", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	ids := make(map[string]struct{})
	for i := 0; i < 4; i++ {
		id := c.create(someReservation)
		_, dup := ids[id]
		require.False(t, dup, "ID должен быть новым")
		ids[id] = struct{}{}
	}

	status, body = c.do(http.MethodGet, "/reservations/all", nil)
	require.Equal(t, http.StatusOK, status)
	var all []models.Reservation
	require.NoError(t, json.Unmarshal(body, &all))
	require.Len(t, all, 4)
	for _, r := range all {
		assert.Contains(t, ids, r.ID)
		assert.Equal(t, "d1", r.StartDate)
		assert.Equal(t, "u", r.User)
	}
}

func TestServer_ValidationErrors(t *testing.T) {
	c := newTestClient(t)
	c.login()
	id := c.create(someReservation)

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "POST без поля",
			method:         http.MethodPost,
			path:           "/reservations",
			body:           map[string]string{"startDate": "d1"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Incomplete reservation!",
		},
		{
			name:   "POST с лишним полем",
			method: http.MethodPost,
			path:   "/reservations",
			body: map[string]string{
				"startDate": "d1", "endDate": "d2", "room": "r", "user": "u", "someFiled": "123",
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Incomplete reservation!",
		},
		{
			name:           "GET без ID",
			method:         http.MethodGet,
			path:           "/reservations",
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Please provide an ID!",
		},
		{
			name:           "PUT без ID",
			method:         http.MethodPut,
			path:           "/reservations/",
			body:           map[string]string{"room": "x"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Please provide an ID!",
		},
		{
			name:           "DELETE без ID",
			method:         http.MethodDelete,
			path:           "/reservations",
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Please provide an ID!",
		},
		{
			name:           "PUT без допустимых полей",
			method:         http.MethodPut,
			path:           "/reservations/" + id,
			body:           map[string]string{"startDate1": "someDate"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Please provide valid fields to update!",
		},
		{
			name:           "PUT несуществующего бронирования",
			method:         http.MethodPut,
			path:           "/reservations/missing",
			body:           map[string]string{"room": "x"},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Reservation with id missing not found",
		},
		{
			name:           "Неподдерживаемый метод",
			method:         http.MethodPatch,
			path:           "/reservations/" + id,
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Unsupported method!",
		},
		{
			name:           "Неизвестный путь",
			method:         http.MethodGet,
			path:           "/unknown",
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Not found!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := c.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedMsg, message(t, body))
		})
	}
}

func TestServer_Authorization(t *testing.T) {
	c := newTestClient(t)

	t.Run("Без токена", func(t *testing.T) {
		status, body := c.do(http.MethodGet, "/reservations/all", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Unauthorized!", message(t, body))
	})

	t.Run("Неизвестный токен", func(t *testing.T) {
		c.token = "someToken"
		status, _ := c.do(http.MethodPost, "/reservations", someReservation)
		assert.Equal(t, http.StatusUnauthorized, status)
		c.token = ""
	})

	t.Run("Проверка токена раньше проверки метода", func(t *testing.T) {
		status, _ := c.do(http.MethodPatch, "/reservations/1", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("Неверный пароль", func(t *testing.T) {
		c.login()
		status, body := c.do(http.MethodPost, "/login", models.Credentials{UserName: "someUserName", Password: "wrong"})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Wrong user name or password!", message(t, body))
	})

	t.Run("Повторная регистрация", func(t *testing.T) {
		status, body := c.do(http.MethodPost, "/register", models.Credentials{UserName: "someUserName", Password: "x"})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "User name already taken!", message(t, body))
	})

	t.Run("Bearer-префикс", func(t *testing.T) {
		raw := c.token
		c.token = "Bearer " + raw
		status, _ := c.do(http.MethodGet, "/reservations/all", nil)
		assert.Equal(t, http.StatusOK, status)
		c.token = raw
	})
}

func TestSetupRouter(t *testing.T) {
	srv := server.New(server.Config{TokenSecret: []byte("test-secret")})
	r, ok := srv.Handler().(chi.Routes)
	require.True(t, ok)

	assert.True(t, hasRoute(r, http.MethodGet, "/ping"))
	assert.True(t, hasRoute(r, http.MethodPost, "/register"))
	assert.True(t, hasRoute(r, http.MethodPost, "/login"))
	assert.True(t, hasRoute(r, http.MethodPost, "/reservations/"))
	assert.True(t, hasRoute(r, http.MethodGet, "/reservations/all"))
	assert.True(t, hasRoute(r, http.MethodGet, "/reservations/{id}"))
	assert.True(t, hasRoute(r, http.MethodPut, "/reservations/{id}"))
	assert.True(t, hasRoute(r, http.MethodDelete, "/reservations/{id}"))
}

// Вспомогательная функция для проверки наличия маршрута.
func hasRoute(r chi.Routes, method, pattern string) bool {
	found := false
	// Ошибка от chi.Walk используется только для прерывания обхода
	_ = chi.Walk(r, func(m, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if m == method && route == pattern {
			found = true
			return errors.New("found")
		}
		return nil
	})
	return found
}

func TestServer_StartStop(t *testing.T) {
	srv := server.New(server.Config{Addr: "127.0.0.1:0", TokenSecret: []byte("test-secret")})
	assert.Empty(t, srv.Addr())

	require.NoError(t, srv.Start())
	require.ErrorIs(t, srv.Start(), server.ErrAlreadyStarted)

	addr := srv.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/ping")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "pong\n", string(body))

	ctx := context.Background()
	token := registerAndLogin(t, srv)
	require.True(t, srv.Authorizer().ValidateToken(ctx, token).Valid)
	_, err = srv.Reservations().CreateReservation(ctx, models.Reservation{Room: "r"})
	require.NoError(t, err)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(stopCtx))

	// После остановки токены и данные освобождены
	assert.False(t, srv.Authorizer().ValidateToken(ctx, token).Valid)
	all, err := srv.Reservations().GetAllReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	_, open := <-srv.Errors()
	assert.False(t, open, "канал ошибок закрывается после остановки")
}

func TestServer_StopWithoutStart(t *testing.T) {
	srv := server.New(server.Config{TokenSecret: []byte("test-secret")})
	require.ErrorIs(t, srv.Stop(context.Background()), server.ErrNotStarted)
}

func registerAndLogin(t *testing.T, srv *server.Server) string {
	t.Helper()
	ctx := context.Background()
	_, err := srv.Authorizer().RegisterUser(ctx, "someUserName", "somePassword")
	require.NoError(t, err)
	token, err := srv.Authorizer().Login(ctx, "someUserName", "somePassword")
	require.NoError(t, err)
	return token
}
