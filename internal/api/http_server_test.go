package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/config"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/infrastructure/memstore"
)

type testServer struct {
	router   *gin.Engine
	products *application.ProductService
	packages *application.PackageService
	bossID   int64
	userID   int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	employees := memstore.NewEmployeeRepository()
	boss := &domain.Employee{Username: "jefa", Role: domain.RoleBoss, Active: true}
	user := &domain.Employee{Username: "ana", Role: domain.RoleUser, Active: true}
	require.NoError(t, employees.Insert(context.Background(), boss))
	require.NoError(t, employees.Insert(context.Background(), user))

	products := application.NewProductService(store, nil)
	packages := application.NewPackageService(store, nil)
	srv := NewServer(config.Config{ServiceName: "packages-test"}, packages, products, application.NewEmployeeService(employees))

	return &testServer{
		router:   srv.NewRouter(),
		products: products,
		packages: packages,
		bossID:   boss.ID,
		userID:   user.ID,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, employeeID int64, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if employeeID > 0 {
		req.Header.Set(employeeHeader, strconv.FormatInt(employeeID, 10))
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) form(t *testing.T, path string, employeeID int64, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, http.MethodPost, path, employeeID, values.Encode(), "application/x-www-form-urlencoded")
}

func (ts *testServer) multipartForm(
	t *testing.T,
	path string,
	employeeID int64,
	values map[string]string,
	fileField string,
	file []byte,
) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, "foto.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return ts.do(t, http.MethodPost, path, employeeID, body.String(), mw.FormDataContentType())
}

func (ts *testServer) seedProduct(t *testing.T, name string, qty int) *domain.Product {
	t.Helper()
	p, err := ts.products.Create(context.Background(), domain.Actor{EmployeeID: ts.bossID, Role: domain.RoleBoss},
		application.ProductInput{Name: name, Quantity: &qty})
	require.NoError(t, err)
	return p
}

func (ts *testServer) generate(t *testing.T, productID int64, qty int) packageResponse {
	t.Helper()
	data := `[{"id":` + strconv.FormatInt(productID, 10) + `,"cantidad":` + strconv.Itoa(qty) + `}]`
	w := ts.form(t, "/api/packages/generate", ts.userID, url.Values{"productos_data": {data}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp packageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/health", 0, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAPI_RequiresEmployee(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/products", 0, "", "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/products", 99, "", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/products", ts.userID, "", "").Code)
}

func TestGeneratePackage_FormAndJSON(t *testing.T) {
	ts := newTestServer(t)
	p := ts.seedProduct(t, "Tornillo", 10)

	draft := ts.generate(t, p.ID, 4)
	assert.Equal(t, domain.PackageCode(draft.ID), draft.Code)
	assert.Equal(t, domain.PackageDraft, draft.Status)
	require.Len(t, draft.Lines, 1)
	assert.Equal(t, 4, draft.Lines[0].Quantity)

	body := `{"productos":[{"id":` + strconv.FormatInt(p.ID, 10) + `,"cantidad":2}]}`
	w := ts.do(t, http.MethodPost, "/api/packages/generate", ts.userID, body, "application/json")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestGeneratePackage_WithoutSelectionRedirects(t *testing.T) {
	ts := newTestServer(t)

	w := ts.form(t, "/api/packages/generate", ts.userID, url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/api/products", w.Header().Get("Location"))
}

func TestGeneratePackage_ShortageReportsEveryProduct(t *testing.T) {
	ts := newTestServer(t)
	a := ts.seedProduct(t, "Tornillo", 1)
	b := ts.seedProduct(t, "Tuerca", 0)

	data := `[{"id":` + strconv.FormatInt(a.ID, 10) + `,"cantidad":5},{"id":` + strconv.FormatInt(b.ID, 10) + `,"cantidad":1}]`
	w := ts.form(t, "/api/packages/generate", ts.userID, url.Values{"productos_data": {data}})
	require.Equal(t, http.StatusConflict, w.Code)

	var resp shortageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []domain.Shortage{
		{Name: "Tornillo", Requested: 5, Available: 1},
		{Name: "Tuerca", Requested: 1, Available: 0},
	}, resp.Shortages)
}

func TestConfirmPackage(t *testing.T) {
	ts := newTestServer(t)
	p := ts.seedProduct(t, "Tornillo", 10)
	draft := ts.generate(t, p.ID, 4)
	path := "/api/packages/" + strconv.FormatInt(draft.ID, 10) + "/confirm"

	w := ts.form(t, path, ts.userID, url.Values{"sucursal": {"  "}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"paquete"`)
	assert.Contains(t, w.Body.String(), draft.Code)

	w = ts.form(t, path, ts.userID, url.Values{"sucursal": {"Centro"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/api/packages", w.Header().Get("Location"))

	got, err := ts.products.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)

	w = ts.do(t, http.MethodGet, "/api/packages", ts.userID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []packageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Centro", list[0].Branch)

	w = ts.form(t, path, ts.userID, url.Values{"sucursal": {"Centro"}})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestConfirmMissingPackageRedirectsToCatalog(t *testing.T) {
	ts := newTestServer(t)

	w := ts.form(t, "/api/packages/42/confirm", ts.userID, url.Values{"sucursal": {"Centro"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/api/products", w.Header().Get("Location"))
}

func TestCancelPackage(t *testing.T) {
	ts := newTestServer(t)
	p := ts.seedProduct(t, "Tornillo", 10)
	draft := ts.generate(t, p.ID, 4)

	w := ts.form(t, "/api/packages/"+strconv.FormatInt(draft.ID, 10)+"/cancel", ts.userID, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/api/products", w.Header().Get("Location"))

	w = ts.do(t, http.MethodGet, "/api/packages/"+strconv.FormatInt(draft.ID, 10), ts.userID, "", "")
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestDeletePackageNeedsAdmin(t *testing.T) {
	ts := newTestServer(t)
	p := ts.seedProduct(t, "Tornillo", 10)
	draft := ts.generate(t, p.ID, 4)
	path := "/api/packages/" + strconv.FormatInt(draft.ID, 10) + "/delete"

	assert.Equal(t, http.StatusForbidden, ts.form(t, path, ts.userID, nil).Code)

	w := ts.form(t, path, ts.bossID, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/api/packages", w.Header().Get("Location"))
}

func TestProductDeleteInUse(t *testing.T) {
	ts := newTestServer(t)
	p := ts.seedProduct(t, "Tornillo", 10)
	draft := ts.generate(t, p.ID, 1)

	w := ts.form(t, "/api/products/"+strconv.FormatInt(p.ID, 10)+"/delete", ts.bossID, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	var resp productInUseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{draft.Code}, resp.Packages)
}

func TestCreateProductForm(t *testing.T) {
	ts := newTestServer(t)

	w := ts.form(t, "/api/products", ts.userID, url.Values{"nombre": {"Clavo"}, "cantidad": {"3"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.form(t, "/api/products", ts.bossID, url.Values{"nombre": {"Clavo"}, "cantidad": {"3"}, "codigo_barras": {"750"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = ts.form(t, "/api/products", ts.bossID, url.Values{"nombre": {"Otro"}, "cantidad": {"1"}, "codigo_barras": {"750"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestBadPathID(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, ts.form(t, "/api/packages/abc/confirm", ts.userID, nil).Code)
}

func TestEditProduct_MissingQuantityChangesNothing(t *testing.T) {
	ts := newTestServer(t)
	barcode := "750100"
	qty := 40
	p, err := ts.products.Create(context.Background(), domain.Actor{EmployeeID: ts.bossID, Role: domain.RoleBoss},
		application.ProductInput{Name: "Harina", Quantity: &qty, Barcode: &barcode})
	require.NoError(t, err)
	path := "/api/products/" + strconv.FormatInt(p.ID, 10) + "/edit"

	w := ts.form(t, path, ts.bossID, url.Values{"nombre": {"Harina fina"}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"campo":"cantidad"`)

	w = ts.form(t, path, ts.bossID, url.Values{"nombre": {"Harina fina"}, "cantidad": {""}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	got, err := ts.products.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harina", got.Name)
	assert.Equal(t, 40, got.Quantity)
	require.NotNil(t, got.Barcode)
	assert.Equal(t, "750100", *got.Barcode)

	w = ts.form(t, path, ts.bossID, url.Values{"nombre": {"Harina fina"}, "cantidad": {"35"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	got, err = ts.products.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harina fina", got.Name)
	assert.Equal(t, 35, got.Quantity)
	require.NotNil(t, got.Barcode)
	assert.Equal(t, "750100", *got.Barcode)
}

func TestProductImage(t *testing.T) {
	ts := newTestServer(t)
	p := ts.seedProduct(t, "Harina", 5)
	imagePath := "/api/products/" + strconv.FormatInt(p.ID, 10) + "/image"

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, imagePath, ts.userID, "", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/products/999/image", ts.userID, "", "").Code)

	png := []byte("\x89PNG\r\n\x1a\n0000")
	w := ts.multipartForm(t, "/api/products/"+strconv.FormatInt(p.ID, 10)+"/edit", ts.bossID,
		map[string]string{"nombre": "Harina", "cantidad": "5"}, "imagen", png)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, imagePath, ts.userID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, png, w.Body.Bytes())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestOwnProfile(t *testing.T) {
	ts := newTestServer(t)
	picturePath := "/api/employees/" + strconv.FormatInt(ts.userID, 10) + "/picture"

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, picturePath, ts.userID, "", "").Code)

	pic := []byte("\xff\xd8\xff\xe0jpeg")
	w := ts.multipartForm(t, "/api/profile", ts.userID, map[string]string{"calle": "Hidalgo", "nombre": "Ana"}, "foto_perfil", pic)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/api/profile", w.Header().Get("Location"))

	w = ts.do(t, http.MethodGet, "/api/profile", ts.userID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Employee   domain.Employee `json:"empleado"`
		HasPicture bool            `json:"tiene_foto"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Hidalgo", resp.Employee.Street)
	assert.Equal(t, "Ana", resp.Employee.FirstName)
	assert.Equal(t, domain.RoleUser, resp.Employee.Role)
	assert.True(t, resp.HasPicture)

	w = ts.do(t, http.MethodGet, picturePath, ts.bossID, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pic, w.Body.Bytes())

	w = ts.form(t, "/api/profile/delete_picture", ts.userID, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, picturePath, ts.userID, "", "").Code)
}
