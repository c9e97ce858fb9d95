package server

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gutsassistent/caferico-ralph-sub000/internal/domain"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/metrics"
	"github.com/gutsassistent/caferico-ralph-sub000/internal/service"
)

// checkoutRequest deliberately carries no customer id field: the commerce
// customer is resolved server-side from the email during Initiate.
type checkoutRequest struct {
	Items    []domain.CartItem      `json:"items"`
	Customer domain.CustomerDetails `json:"customer"`
	Locale   string                 `json:"locale"`
}

func (s *Server) handleCheckout(c *gin.Context) {
	timer := prometheus.NewTimer(metrics.CheckoutLatency)
	defer timer.ObserveDuration()

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.checkout.Initiate(c.Request.Context(), service.CheckoutRequest{
		Items:    req.Items,
		Customer: req.Customer,
		Locale:   req.Locale,
	})

	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason, "field": vErr.Field})
			return
		}

		// Pricing and provider problems stay generic towards the user.
		s.logger.Error("checkout failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to complete checkout, please try again"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentId":   result.PaymentID,
		"checkoutUrl": result.CheckoutURL,
	})
}

// paymentIDPattern bounds what this system accepts as a provider payment
// identifier. Deliveries outside it are acknowledged without processing;
// redelivering malformed input cannot fix it.
var paymentIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

func (s *Server) handleWebhook(c *gin.Context) {
	// An auth mismatch is acknowledged without processing and without any
	// signal to the sender: the provider cannot fix its token by retrying,
	// and probing attackers learn nothing from a plain 200.
	if s.webhookToken != "" && c.Query("token") != s.webhookToken {
		s.logger.Debug("webhook token mismatch")
		metrics.WebhookOutcomes.WithLabelValues("auth_mismatch").Inc()
		c.Status(http.StatusOK)
		return
	}

	paymentID := c.PostForm("id")
	if !paymentIDPattern.MatchString(paymentID) {
		s.logger.Debug("webhook with malformed payment id")
		metrics.WebhookOutcomes.WithLabelValues("malformed").Inc()
		c.Status(http.StatusOK)
		return
	}

	outcome := s.reconcile.Process(c.Request.Context(), paymentID)
	metrics.WebhookOutcomes.WithLabelValues(string(outcome)).Inc()

	if outcome == service.OutcomeOrderCreated {
		metrics.OrdersCreated.Inc()
	}

	if outcome.Retryable() {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Status(http.StatusOK)
}

func (s *Server) handleStatus(c *gin.Context) {
	result := s.status.Check(c.Request.Context(), c.Query("id"))
	c.JSON(http.StatusOK, result)
}
