package swagger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRegister(t *testing.T) {
	Convey("Given the documentation routes", t, func() {
		mux := http.NewServeMux()
		Register(context.Background(), mux)

		Convey("the OpenAPI document is served", func() {
			req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/yaml; charset=utf-8")
			So(w.Body.String(), ShouldContainSubstring, "Lumina Engagement API")
			So(w.Body.String(), ShouldContainSubstring, "/leaderboard")
		})

		Convey("the viewer page is served", func() {
			req := httptest.NewRequest(http.MethodGet, "/api-docs", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "text/html; charset=utf-8")
			So(w.Body.String(), ShouldContainSubstring, "redoc-container")
			So(w.Body.String(), ShouldContainSubstring, "/openapi.yaml")
		})
	})
}

func TestRegisterNilMux(t *testing.T) {
	Convey("Registering on a nil mux panics", t, func() {
		So(func() { Register(context.Background(), nil) }, ShouldPanic)
	})
}
