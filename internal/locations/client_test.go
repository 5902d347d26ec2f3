package locations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aquaticpose/aquaticpose-backend/pkg/config"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.LocationsConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	return client
}

func TestListProvinces(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"code": 1, "name": "Thành phố Hà Nội", "codename": "thanh_pho_ha_noi", "phone_code": 24},
			{"code": 79, "name": "Thành phố Hồ Chí Minh", "codename": "thanh_pho_ho_chi_minh", "phone_code": 28}
		]`))
	}))

	provinces, err := client.ListProvinces(context.Background())
	if err != nil {
		t.Fatalf("ListProvinces failed: %v", err)
	}
	if len(provinces) != 2 {
		t.Fatalf("expected 2 provinces, got %d", len(provinces))
	}
	if provinces[0].Name != "Thành phố Hà Nội" || provinces[0].Code != 1 {
		t.Fatalf("unexpected first province %+v", provinces[0])
	}
}

func TestGetProvinceWithDistricts(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/p/1" || r.URL.Query().Get("depth") != "2" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"code": 1, "name": "Thành phố Hà Nội", "codename": "thanh_pho_ha_noi", "phone_code": 24,
			"districts": [{"code": 5, "name": "Quận Cầu Giấy", "codename": "quan_cau_giay", "province_code": 1}]
		}`))
	}))

	province, err := client.GetProvince(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetProvince failed: %v", err)
	}
	if len(province.Districts) != 1 || province.Districts[0].Name != "Quận Cầu Giấy" {
		t.Fatalf("unexpected districts %+v", province.Districts)
	}
}

func TestGetDistrictWithWards(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/d/5" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"code": 5, "name": "Quận Cầu Giấy", "codename": "quan_cau_giay", "province_code": 1,
			"wards": [{"code": 157, "name": "Phường Nghĩa Đô", "codename": "phuong_nghia_do", "district_code": 5}]
		}`))
	}))

	district, err := client.GetDistrict(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetDistrict failed: %v", err)
	}
	if len(district.Wards) != 1 || district.Wards[0].Code != 157 {
		t.Fatalf("unexpected wards %+v", district.Wards)
	}
}

func TestLookupErrors(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/p/999":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))

	_, err := client.GetProvince(context.Background(), 999)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}

	_, err = client.ListProvinces(context.Background())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR for upstream failure, got %v", err)
	}

	// Unreachable host.
	bad, err := NewClient(config.LocationsConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	_, err = bad.ListProvinces(context.Background())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR for transport failure, got %v", err)
	}
}
