package apperr

import "strings"

// Catalog codes.
const (
	CodeAuthMissing   = "auth.missing"
	CodeAuthInvalid   = "auth.invalid"
	CodeAuthExpired   = "auth.expired"
	CodeAuthMalformed = "auth.malformed"
	CodeAuthBadLogin  = "auth.bad_login"

	CodeUserExists      = "user.exists"
	CodeUserNotFound    = "user.not_found"
	CodeExpenseNotFound = "expense.not_found"
	CodeGoalNotFound    = "goal.not_found"
	CodeRouteNotFound   = "route.not_found"

	CodeInvalidBody        = "validation.body"
	CodeInvalidNumber      = "validation.number"
	CodeInvalidDate        = "validation.date"
	CodeAmountPositive     = "validation.amount_positive"
	CodeAmountTooLarge     = "validation.amount_too_large"
	CodeCategoryInvalid    = "validation.category"
	CodeDescriptionTooLong = "validation.description_length"
	CodeIntervalInvalid    = "validation.interval"
	CodeTitleRequired      = "validation.title"
	CodeTargetPositive     = "validation.target"
	CodeCurrentNegative    = "validation.current"
	CodeDeadlineRequired   = "validation.deadline"
	CodeDeltaRequired      = "validation.delta"
	CodeNameRequired       = "validation.name"
	CodeEmailInvalid       = "validation.email"
	CodePasswordTooShort   = "validation.password"
	CodePasswordTooLong    = "validation.password_length"
	CodeIncomeNegative     = "validation.income"
	CodePreferenceInvalid  = "validation.preference"

	CodeUpstream   = "server.upstream"
	CodeUnexpected = "server.unexpected"

	CodeExpenseDeleted = "expense.deleted"
	CodeGoalDeleted    = "goal.deleted"
)

const (
	LangHebrew  = "he"
	LangEnglish = "en"

	DefaultLanguage = LangHebrew
)

var catalog = map[string]map[string]string{
	CodeAuthMissing: {
		LangHebrew:  "אין הרשאה - נדרשת התחברות",
		LangEnglish: "Authentication required",
	},
	CodeAuthInvalid: {
		LangHebrew:  "טוקן לא תקין",
		LangEnglish: "Invalid token",
	},
	CodeAuthExpired: {
		LangHebrew:  "פג תוקף החיבור - נא להתחבר מחדש",
		LangEnglish: "Session expired, please log in again",
	},
	CodeAuthMalformed: {
		LangHebrew:  "טוקן לא תקין - חסר מזהה משתמש",
		LangEnglish: "Token is missing the user identifier",
	},
	CodeAuthBadLogin: {
		LangHebrew:  "אימייל או סיסמה שגויים",
		LangEnglish: "Incorrect email or password",
	},
	CodeUserExists: {
		LangHebrew:  "משתמש זה כבר קיים במערכת",
		LangEnglish: "A user with this email already exists",
	},
	CodeUserNotFound: {
		LangHebrew:  "משתמש לא נמצא",
		LangEnglish: "User not found",
	},
	CodeExpenseNotFound: {
		LangHebrew:  "ההוצאה לא נמצאה",
		LangEnglish: "Expense not found",
	},
	CodeGoalNotFound: {
		LangHebrew:  "היעד לא נמצא",
		LangEnglish: "Goal not found",
	},
	CodeInvalidBody: {
		LangHebrew:  "גוף הבקשה אינו תקין",
		LangEnglish: "Request body is not valid JSON",
	},
	CodeAmountTooLarge: {
		LangHebrew:  "הסכום גבוה מדי",
		LangEnglish: "Amount is too large",
	},
	CodeInvalidNumber: {
		LangHebrew:  "נא להזין מספר תקין",
		LangEnglish: "Please enter a valid number",
	},
	CodeInvalidDate: {
		LangHebrew:  "נא להזין תאריך תקין",
		LangEnglish: "Please enter a valid date",
	},
	CodeAmountPositive: {
		LangHebrew:  "סכום ההוצאה חייב להיות מספר חיובי",
		LangEnglish: "Amount must be a positive number",
	},
	CodeCategoryInvalid: {
		LangHebrew:  "קטגוריה אינה חוקית",
		LangEnglish: "Category is not valid",
	},
	CodeDescriptionTooLong: {
		LangHebrew:  "התיאור לא יכול להיות ארוך מ-200 תווים",
		LangEnglish: "Description cannot be longer than 200 characters",
	},
	CodeIntervalInvalid: {
		LangHebrew:  "תדירות חזרה אינה חוקית",
		LangEnglish: "Recurring interval must be weekly, monthly or yearly",
	},
	CodeTitleRequired: {
		LangHebrew:  "נא להזין כותרת",
		LangEnglish: "Title is required",
	},
	CodeTargetPositive: {
		LangHebrew:  "נא להזין סכום יעד",
		LangEnglish: "Target amount must be a positive number",
	},
	CodeCurrentNegative: {
		LangHebrew:  "הסכום הנוכחי לא יכול להיות שלילי",
		LangEnglish: "Current amount cannot be negative",
	},
	CodeDeadlineRequired: {
		LangHebrew:  "נא להזין תאריך יעד",
		LangEnglish: "Deadline is required",
	},
	CodeDeltaRequired: {
		LangHebrew:  "נא להזין סכום לעדכון ההתקדמות",
		LangEnglish: "Progress amount is required",
	},
	CodeNameRequired: {
		LangHebrew:  "נא להזין שם",
		LangEnglish: "Name is required",
	},
	CodeEmailInvalid: {
		LangHebrew:  "נא להזין אימייל תקין",
		LangEnglish: "Please enter a valid email",
	},
	CodePasswordTooShort: {
		LangHebrew:  "סיסמה חייבת להכיל לפחות 6 תווים",
		LangEnglish: "Password must be at least 6 characters",
	},
	CodePasswordTooLong: {
		LangHebrew:  "סיסמה ארוכה מדי",
		LangEnglish: "Password is too long",
	},
	CodeIncomeNegative: {
		LangHebrew:  "הכנסה לא יכולה להיות שלילית",
		LangEnglish: "Income cannot be negative",
	},
	CodePreferenceInvalid: {
		LangHebrew:  "העדפה אינה חוקית",
		LangEnglish: "Preference value is not supported",
	},
	CodeUpstream: {
		LangHebrew:  "השירות אינו זמין כרגע, נסו שוב מאוחר יותר",
		LangEnglish: "Service temporarily unavailable, please try again later",
	},
	CodeUnexpected: {
		LangHebrew:  "שגיאה בשרת",
		LangEnglish: "Internal server error",
	},
	CodeExpenseDeleted: {
		LangHebrew:  "ההוצאה נמחקה בהצלחה",
		LangEnglish: "Expense deleted",
	},
	CodeGoalDeleted: {
		LangHebrew:  "היעד נמחק בהצלחה",
		LangEnglish: "Goal deleted",
	},
	CodeRouteNotFound: {
		LangHebrew:  "הנתיב לא נמצא",
		LangEnglish: "Route not found",
	},
}

// Message returns the catalog text for code in lang, falling back to the
// default language and then to the generic server error.
func Message(code, lang string) string {
	entry, ok := catalog[code]
	if !ok {
		entry = catalog[CodeUnexpected]
	}
	if msg, ok := entry[lang]; ok {
		return msg
	}
	return entry[DefaultLanguage]
}

// HasMessage reports whether code is in the catalog.
func HasMessage(code string) bool {
	_, ok := catalog[code]
	return ok
}

// Language picks a supported language from an Accept-Language header value.
// Quality weights are ignored; the first supported tag wins.
func Language(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		switch primary {
		case LangHebrew, "iw":
			return LangHebrew
		case LangEnglish:
			return LangEnglish
		}
	}
	return DefaultLanguage
}
