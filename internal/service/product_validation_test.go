package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vendora/vendora/internal/api/dto"
	ierr "github.com/vendora/vendora/internal/errors"
	"github.com/vendora/vendora/internal/integration/platform"
	"github.com/vendora/vendora/internal/testutil"
	"github.com/vendora/vendora/internal/types"
)

// stubValidator answers every product lookup with a fixed verdict
type stubValidator struct {
	platform types.Platform
	result   *platform.Result
	err      error
	seen     platform.Credentials
	deadline bool
}

func (v *stubValidator) Platform() types.Platform { return v.platform }

func (v *stubValidator) Validate(ctx context.Context, creds platform.Credentials) (*platform.Result, error) {
	v.seen = creds
	_, v.deadline = ctx.Deadline()
	return v.result, v.err
}

type ProductValidationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service ProductValidationService
	hotmart *stubValidator
}

func TestProductValidationService(t *testing.T) {
	suite.Run(t, new(ProductValidationServiceSuite))
}

func (s *ProductValidationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.hotmart = &stubValidator{platform: types.PlatformHotmart}

	registry := platform.NewEmptyRegistry()
	s.Require().NoError(registry.Register(s.hotmart))
	s.service = NewProductValidationService(newTestServiceParams(&s.BaseServiceTestSuite), registry)
}

func (s *ProductValidationServiceSuite) TestValidProduct() {
	s.hotmart.result = &platform.Result{Valid: true, ProductName: "Curso de Violão", ProductStatus: "ACTIVE"}

	resp, err := s.service.ValidateProduct(s.GetContext(), &dto.ValidateProductRequest{
		Platform:     "Hotmart",
		ProductID:    "123",
		ClientID:     "cid",
		ClientSecret: "secret",
		BasicToken:   "basic",
	})
	s.Require().NoError(err)
	s.True(resp.Valid)
	s.Require().NotNil(resp.Product)
	s.Equal("Curso de Violão", resp.Product.Name)
	s.Equal("ACTIVE", resp.Product.Status)
	s.Empty(resp.Error)

	s.Equal("123", s.hotmart.seen.ProductID)
	s.Equal("basic", s.hotmart.seen.BasicToken)
	s.True(s.hotmart.deadline)
}

func (s *ProductValidationServiceSuite) TestNegativeVerdictIsNotAnError() {
	s.hotmart.result = &platform.Result{Valid: false, Reason: platform.ReasonNotFound}

	resp, err := s.service.ValidateProduct(s.GetContext(), &dto.ValidateProductRequest{Platform: "hotmart", ProductID: "404"})
	s.Require().NoError(err)
	s.False(resp.Valid)
	s.Nil(resp.Product)
	s.Equal(platform.ReasonNotFound, resp.Error)
}

func (s *ProductValidationServiceSuite) TestUpstreamFailureIsBadGateway() {
	s.hotmart.err = errors.New("connection refused")

	_, err := s.service.ValidateProduct(s.GetContext(), &dto.ValidateProductRequest{Platform: "hotmart", ProductID: "1"})
	s.Require().Error(err)
	s.True(ierr.IsHTTPClient(err))
}

func (s *ProductValidationServiceSuite) TestMissingFieldsPassThrough() {
	s.hotmart.err = ierr.NewError("client_id is required").Mark(ierr.ErrValidation)

	_, err := s.service.ValidateProduct(s.GetContext(), &dto.ValidateProductRequest{Platform: "hotmart", ProductID: "1"})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
	s.False(ierr.IsHTTPClient(err))
}

func (s *ProductValidationServiceSuite) TestUnsupportedPlatform() {
	_, err := s.service.ValidateProduct(s.GetContext(), &dto.ValidateProductRequest{Platform: "gumroad", ProductID: "1"})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ProductValidationServiceSuite) TestRegisteredElsewhereButNotHere() {
	_, err := s.service.ValidateProduct(s.GetContext(), &dto.ValidateProductRequest{Platform: "kiwify", ProductID: "1"})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}
