package handlers

import (
	"errors"
	"net/http"
)

func (suite *HandlersTestSuite) TestRegisterVerifyLogin() {
	register := map[string]string{
		"name":      "Alice",
		"username":  "alice",
		"institute": "MIT",
		"email":     "Alice@Uni.test",
		"password":  "secret123",
	}

	w := suite.do(http.MethodPost, "/api/auth/register", "", register)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created map[string]interface{}
	suite.decode(w, &created)
	suite.Equal("Code sent", created["message"])
	userID := created["userId"].(string)

	code := suite.mailer.code("alice@uni.test")
	suite.Require().Len(code, 4)

	w = suite.do(http.MethodPost, "/api/auth/register", "", register)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("User already exists", suite.errorBody(w)["message"])
	suite.Equal("CONFLICT", suite.errorBody(w)["code"])

	wrong := "0000"
	if code == wrong {
		wrong = "1111"
	}
	w = suite.do(http.MethodPost, "/api/auth/verify", "", map[string]string{"userId": userID, "code": wrong})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Invalid code", suite.errorBody(w)["message"])

	w = suite.do(http.MethodPost, "/api/auth/verify", "", map[string]string{"userId": userID, "code": code})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var verified struct {
		User  map[string]interface{} `json:"user"`
		Token string                 `json:"token"`
	}
	suite.decode(w, &verified)
	suite.NotEmpty(verified.Token)
	suite.Equal(true, verified.User["isVerified"])
	suite.NotContains(w.Body.String(), "password")

	w = suite.do(http.MethodGet, "/api/auth/me", verified.Token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var me map[string]interface{}
	suite.decode(w, &me)
	suite.Equal(userID, me["_id"])

	w = suite.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@uni.test", "password": "nope"})
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("Invalid email or password", suite.errorBody(w)["message"])

	w = suite.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@uni.test", "password": "secret123"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var login map[string]interface{}
	suite.decode(w, &login)
	suite.Equal(userID, login["_id"])
	suite.Equal("alice", login["username"])
	suite.NotEmpty(login["token"])
}

func (suite *HandlersTestSuite) TestRegisterValidation() {
	w := suite.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Alice",
		"email":    "not-an-email",
		"password": "secret123",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("BAD_REQUEST", suite.errorBody(w)["code"])
}

func (suite *HandlersTestSuite) TestRegisterMailFailure() {
	suite.mailer.err = errors.New("ses down")

	w := suite.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":      "Bob",
		"username":  "bob",
		"institute": "MIT",
		"email":     "bob@uni.test",
		"password":  "secret123",
	})
	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal("Failed to send verification email", suite.errorBody(w)["message"])
}
