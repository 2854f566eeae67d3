package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/storefront-session/internal/constants"
	"github.com/storefront-session/internal/models"
	"github.com/storefront-session/internal/queue"
	"github.com/storefront-session/internal/snapshot"
	"github.com/storefront-session/internal/storeapi"

	"github.com/golang-jwt/jwt/v5"
)

type authFixture struct {
	auth    *AuthService
	cart    *CartService
	catalog *CatalogService
	session *Session
	store   *snapshot.MemoryStore
}

func newAuthFixture(t *testing.T, handler http.Handler) *authFixture {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	api := storeapi.NewClient(storeapi.Config{BaseURL: server.URL, Timeout: 2 * time.Second})
	store := snapshot.NewMemoryStore()
	session := NewSession()
	writer := NewSnapshotWriter(store)
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("queue client: %v", err)
	}
	syncService := NewSyncService(api, session, time.Millisecond)
	cart := NewCartService(api, syncService, writer, queueClient)
	catalog := NewCatalogService(api, writer)
	writer.Bind(session, cart, catalog)
	auth := NewAuthService(api, session, cart, catalog, writer)

	return &authFixture{auth: auth, cart: cart, catalog: catalog, session: session, store: store}
}

func signedToken(t *testing.T, sub interface{}) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"user": "mor_2314",
	})
	signed, err := token.SignedString([]byte("remote secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func loginHandler(t *testing.T, token string) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req storeapi.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode login request: %v", err)
		}
		if req.Username == "" || req.Password == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
	mux.HandleFunc("/users/2", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+token {
			t.Errorf("expected bearer token, got %q", got)
		}
		json.NewEncoder(w).Encode(models.User{ID: 2, Username: "mor_2314", Email: "mor@example.com"})
	})
	mux.HandleFunc("/carts/user/2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.RemoteCart{
			{ID: 3, UserID: 2, Products: []models.RemoteCartLine{{ProductID: 1, Quantity: 1}}},
		})
	})
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(testProduct(1, 9.99))
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Product{testProduct(1, 9.99)})
	})
	return mux
}

func TestLoginEstablishesSessionAndMergesCart(t *testing.T) {
	token := signedToken(t, float64(2))
	f := newAuthFixture(t, loginHandler(t, token))

	if err := f.cart.AddItem(testProduct(1, 9.99)); err != nil {
		t.Fatalf("seed guest cart: %v", err)
	}

	if err := f.auth.Login(context.Background(), "mor_2314", "83r5^_"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if f.session.State() != constants.SessionStateAuthenticated {
		t.Fatalf("expected authenticated state, got %s", f.session.State())
	}
	user := f.session.User()
	if user == nil || user.ID != 2 {
		t.Fatalf("expected user 2, got %+v", user)
	}
	if f.session.Token() != token {
		t.Fatalf("token not retained")
	}

	items := f.cart.Items()
	if len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected merged quantity 2, got %+v", items)
	}

	state, err := f.store.Load(context.Background())
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if state.User == nil || state.User.ID != 2 || state.Token != token {
		t.Fatalf("session snapshot not persisted: %+v", state)
	}
}

func TestLoginWithStringSubjectClaim(t *testing.T) {
	token := signedToken(t, "2")
	f := newAuthFixture(t, loginHandler(t, token))

	if err := f.auth.Login(context.Background(), "mor_2314", "83r5^_"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if id, ok := f.session.UserID(); !ok || id != 2 {
		t.Fatalf("expected user 2 from string sub, got %d (%v)", id, ok)
	}
}

func TestLoginFallsBackToDefaultUser(t *testing.T) {
	// 不是 JWT 的裸字符串令牌，解析失败时回退 /users/1
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "opaque-token"})
	})
	mux.HandleFunc("/users/1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.User{ID: 1, Username: "johnd"})
	})
	mux.HandleFunc("/carts/user/1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.RemoteCart{})
	})
	f := newAuthFixture(t, mux)

	if err := f.auth.Login(context.Background(), "johnd", "m38rmF$"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if id, ok := f.session.UserID(); !ok || id != 1 {
		t.Fatalf("expected fallback user 1, got %d (%v)", id, ok)
	}
}

func TestLoginPrefetchesEmptyCatalog(t *testing.T) {
	token := signedToken(t, float64(2))
	var listCalls int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
	mux.HandleFunc("/users/2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.User{ID: 2, Username: "mor_2314"})
	})
	mux.HandleFunc("/carts/user/2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.RemoteCart{})
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&listCalls, 1)
		json.NewEncoder(w).Encode([]models.Product{testProduct(1, 9.99), testProduct(2, 2.00)})
	})
	f := newAuthFixture(t, mux)

	if err := f.auth.Login(context.Background(), "mor_2314", "83r5^_"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := atomic.LoadInt64(&listCalls); got != 1 {
		t.Fatalf("login should fetch the catalog once, got %d calls", got)
	}
	if len(f.catalog.Products()) != 2 {
		t.Fatalf("catalog should be populated after login")
	}

	// 缓存已加载，再次登录不重复拉取
	if err := f.auth.Login(context.Background(), "mor_2314", "83r5^_"); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if got := atomic.LoadInt64(&listCalls); got != 1 {
		t.Fatalf("loaded catalog must not be refetched, got %d calls", got)
	}
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	f := newAuthFixture(t, mux)

	if err := f.cart.AddItem(testProduct(8, 2.00)); err != nil {
		t.Fatalf("seed guest cart: %v", err)
	}

	if err := f.auth.Login(context.Background(), "johnd", "wrong"); !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("expected ErrLoginFailed, got %v", err)
	}

	if f.session.State() != constants.SessionStateAnonymous {
		t.Fatalf("failed login must leave the session anonymous, got %s", f.session.State())
	}
	if f.cart.Count() != 1 {
		t.Fatalf("failed login must not touch the cart")
	}
}

func TestLoginSurvivesMergeFailure(t *testing.T) {
	token := signedToken(t, float64(2))
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
	mux.HandleFunc("/users/2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.User{ID: 2, Username: "mor_2314"})
	})
	mux.HandleFunc("/carts/user/2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	f := newAuthFixture(t, mux)

	if err := f.cart.AddItem(testProduct(1, 3.00)); err != nil {
		t.Fatalf("seed guest cart: %v", err)
	}

	if err := f.auth.Login(context.Background(), "mor_2314", "83r5^_"); err != nil {
		t.Fatalf("login should succeed despite merge failure: %v", err)
	}
	if f.session.State() != constants.SessionStateAuthenticated {
		t.Fatalf("expected authenticated state")
	}
	if f.cart.Count() != 1 {
		t.Fatalf("local cart must survive merge failure")
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	token := signedToken(t, float64(2))
	f := newAuthFixture(t, loginHandler(t, token))

	if err := f.auth.Login(context.Background(), "mor_2314", "83r5^_"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if len(f.catalog.Products()) == 0 {
		t.Fatalf("login should leave the catalog populated")
	}

	if err := f.auth.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if f.session.State() != constants.SessionStateAnonymous {
		t.Fatalf("expected anonymous state after logout")
	}
	if f.session.User() != nil || f.session.Token() != "" {
		t.Fatalf("identity must be cleared")
	}
	if f.cart.Count() != 0 {
		t.Fatalf("cart must be cleared")
	}
	if !f.store.Empty() {
		t.Fatalf("snapshots must be purged")
	}
	if len(f.catalog.Products()) != 0 {
		t.Fatalf("catalog cache must be cleared")
	}

	// 幂等
	if err := f.auth.Logout(context.Background()); err != nil {
		t.Fatalf("repeated logout: %v", err)
	}
}
