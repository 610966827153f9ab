package testdata

import (
	"github.com/brianvoe/gofakeit/v7"
)

func RandomEmail() string {
	return gofakeit.Email()
}

func RandomFullName() string {
	return gofakeit.Name()
}

func RandomFormTitle() string {
	return gofakeit.Sentence(3)
}

func RandomWorkspaceName() string {
	return gofakeit.Company()
}

func RandomAnswer() string {
	return gofakeit.Sentence(8)
}

func RandomURL() string {
	return gofakeit.URL()
}
