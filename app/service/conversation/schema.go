package conversation

import "github.com/sashabaranov/go-openai/jsonschema"

type positionsAnswer struct {
	Positions []string `json:"positions"`
}

func personalInfoSchema() *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"name": {
				Type:        jsonschema.String,
				Description: "사용자의 이름. 언급되지 않았으면 생략",
			},
			"department": {
				Type:        jsonschema.String,
				Description: "사용자의 학과 (예: 컴퓨터공학과). 언급되지 않았으면 생략",
			},
			"age": {
				Type:        jsonschema.String,
				Description: "사용자의 나이 또는 학번 (예: 23살, 21학번). 언급되지 않았으면 생략",
			},
			"phone_number": {
				Type:        jsonschema.String,
				Description: "사용자의 전화번호 (예: 010-1234-5678). 언급되지 않았으면 생략",
			},
		},
	}
}

func positionsSchema(vocabulary []string) *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"positions": {
				Type:        jsonschema.Array,
				Description: "사용자가 관심있는 포지션 목록",
				Items: &jsonschema.Definition{
					Type: jsonschema.String,
					Enum: vocabulary,
				},
			},
		},
		Required: []string{"positions"},
	}
}
