package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Field error messages shown next to form inputs
const (
	msgRequired         = "This field is required."
	msgInvalidEmail     = "Enter a valid email address."
	msgInvalidUsername  = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgPasswordMismatch = "The two password fields didn't match."
	msgInvalidChoice    = "Select a valid choice. That choice is not one of the available choices."
	msgInvalidImage     = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgImageTooLarge    = "The image is too large. Upload a file of at most 10 MB."
	msgUsernameTaken    = "A user with that username already exists."
	msgEmailTaken       = "A user with that email already exists."
	msgBadCredentials   = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	msgWrongOldPassword = "Your old password was entered incorrectly. Please enter it again."
	msgInvalidForm      = "The submitted form could not be read."
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

var registerValidators sync.Once

// setupValidator teaches gin's validator the form tag names and the custom
// rules used by the forms below
func setupValidator() {
	registerValidators.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	})
}

// FormErrors maps an input name to its messages. The "form" key holds
// errors that belong to no single field.
type FormErrors map[string][]string

func (e FormErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e FormErrors) Any() bool {
	return len(e) > 0
}

// bindForm binds the request into form and converts validation failures
// into messages keyed by input name
func bindForm(c *gin.Context, form any) FormErrors {
	setupValidator()
	errs := FormErrors{}

	err := c.ShouldBind(form)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("form", msgInvalidForm)
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), validationMessage(fe))
	}
	return errs
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return msgRequired
	case "email":
		return msgInvalidEmail
	case "username":
		return msgInvalidUsername
	case "eqfield":
		return msgPasswordMismatch
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), len([]rune(fe.Value().(string))))
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters (it has %d).", fe.Param(), len([]rune(fe.Value().(string))))
	default:
		return "Enter a valid value."
	}
}

// PostForm is the create and edit form for posts
type PostForm struct {
	Text  string `form:"text" binding:"notblank"`
	Group string `form:"group"`

	GroupID      uint       `form:"-"`
	CurrentImage string     `form:"-"`
	Errors       FormErrors `form:"-"`
}

// CommentForm is the comment box under a post
type CommentForm struct {
	Text string `form:"text" binding:"notblank"`
}

// SignupForm creates an account
type SignupForm struct {
	FirstName string `form:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" binding:"max=150"`
	Username  string `form:"username" binding:"required,max=150,username"`
	Email     string `form:"email" binding:"required,max=254,email"`
	Password1 string `form:"password1" binding:"required"`
	Password2 string `form:"password2" binding:"required,eqfield=Password1"`

	Errors FormErrors `form:"-"`
}

// LoginForm signs a user in
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`

	Errors FormErrors `form:"-"`
}

// PasswordChangeForm sets a new password for the signed-in user
type PasswordChangeForm struct {
	OldPassword  string `form:"old_password" binding:"required"`
	NewPassword1 string `form:"new_password1" binding:"required"`
	NewPassword2 string `form:"new_password2" binding:"required,eqfield=NewPassword1"`

	Errors FormErrors `form:"-"`
}

// PasswordResetForm requests a reset link
type PasswordResetForm struct {
	Email string `form:"email" binding:"required,email"`

	Errors FormErrors `form:"-"`
}

// SetPasswordForm sets a new password from a reset link
type SetPasswordForm struct {
	NewPassword1 string `form:"new_password1" binding:"required"`
	NewPassword2 string `form:"new_password2" binding:"required,eqfield=NewPassword1"`

	Errors FormErrors `form:"-"`
}
