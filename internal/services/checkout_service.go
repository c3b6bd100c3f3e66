package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CheckoutParams carries everything the hosted checkout session needs.
// All pricing comes from the catalog, never from the client.
type CheckoutParams struct {
	UserID       int
	Package      PremiumPackage
	TotalPremium int64
	Reference    string
}

// CheckoutRedirect is the opened upstream session.
type CheckoutRedirect struct {
	SessionID string
	URL       string
}

// CheckoutClient opens a hosted payment session with the upstream
// processor.
type CheckoutClient interface {
	CreateSession(ctx context.Context, p CheckoutParams) (*CheckoutRedirect, error)
}

type CheckoutService struct {
	catalog   *PricingCatalog
	client    CheckoutClient
	validator *validator.Validate
}

// CheckoutRequest selects a storefront package. The client may send
// amount fields for UX purposes; they are ignored.
type CheckoutRequest struct {
	PackageID string `json:"packageId" validate:"required" example:"500"`
}

func NewCheckoutService(catalog *PricingCatalog, client CheckoutClient) *CheckoutService {
	return &CheckoutService{
		catalog:   catalog,
		client:    client,
		validator: validator.New(),
	}
}

// ListPackages serves the storefront catalog
// @Summary List premium packages
// @Description List purchasable premium packages with server-side pricing
// @Tags payment
// @Produce json
// @Success 200 {array} PremiumPackage "Catalog packages"
// @Router /payment/packages [get]
func (s *CheckoutService) ListPackages(w http.ResponseWriter, r *http.Request) {
	type packageView struct {
		PremiumPackage
		TotalPremium int64 `json:"totalPremium"`
	}

	packages := s.catalog.Packages()
	views := make([]packageView, 0, len(packages))
	for _, pkg := range packages {
		views = append(views, packageView{PremiumPackage: pkg, TotalPremium: pkg.TotalPremium()})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

// CreateCheckout opens a hosted checkout session
// @Summary Create checkout session
// @Description Open a hosted payment session for a catalog package
// @Tags payment
// @Accept json
// @Produce json
// @Param request body CheckoutRequest true "Package selection"
// @Success 200 {object} map[string]string "Redirect URL"
// @Failure 400 {string} string "Unknown package"
// @Failure 401 {string} string "Not authenticated"
// @Failure 500 {string} string "Upstream unavailable"
// @Router /payment/create-checkout [post]
func (s *CheckoutService) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	// Unknown fields are deliberately tolerated: a tampered client total
	// must not change the outcome, the catalog alone prices the session.
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	pkg, err := s.catalog.Lookup(req.PackageID)
	if err != nil {
		log.Printf("[PAYMENT] Unknown package %q requested by user %d", req.PackageID, claims.UserID)
		SendErrorResponse(w, "Unknown package", http.StatusBadRequest, nil)
		return
	}

	params := CheckoutParams{
		UserID:       claims.UserID,
		Package:      pkg,
		TotalPremium: pkg.TotalPremium(),
		Reference:    uuid.NewString(),
	}

	redirect, err := s.client.CreateSession(r.Context(), params)
	if err != nil {
		log.Printf("[PAYMENT] Checkout session creation failed for user %d: %v", claims.UserID, err)
		SendErrorResponse(w, "Failed to create checkout session", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[PAYMENT] Checkout session %s opened for user %d (package %s, %d premium)",
		redirect.SessionID, claims.UserID, pkg.ID, params.TotalPremium)

	response := map[string]string{"redirectUrl": redirect.URL}
	if r.URL.Query().Get("format") == "qr" {
		qrImage, err := encodeQRImage(redirect.URL, 256)
		if err != nil {
			SendErrorResponse(w, "Failed to render QR code", http.StatusInternalServerError, nil)
			return
		}
		response["qrImage"] = qrImage
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// stripeDescription builds the product copy shown on the hosted page.
func stripeDescription(p CheckoutParams) (name, description string) {
	if p.Package.BonusPercent > 0 {
		name = fmt.Sprintf("%d Premium Points (%d + %d%% Bonus)",
			p.TotalPremium, p.Package.BasePremium, p.Package.BonusPercent)
		description = fmt.Sprintf("Purchase %d Premium Points + %d%% Bonus (%d total) for your game account",
			p.Package.BasePremium, p.Package.BonusPercent, p.TotalPremium)
		return name, description
	}
	name = fmt.Sprintf("%d Premium Points", p.TotalPremium)
	description = fmt.Sprintf("Purchase %d Premium Points for your game account", p.TotalPremium)
	return name, description
}

// checkoutMetadata is the non-repudiable metadata attached at creation.
// The webhook trusts only these values when crediting.
func checkoutMetadata(p CheckoutParams) map[string]string {
	return map[string]string{
		"userId":      strconv.Itoa(p.UserID),
		"premium":     strconv.FormatInt(p.TotalPremium, 10),
		"basePremium": strconv.FormatInt(p.Package.BasePremium, 10),
		"bonus":       strconv.FormatInt(p.Package.BonusPercent, 10),
		"ref":         p.Reference,
	}
}
