package llm

const categoryPrompt = `You are a classification assistant.
Classify the given sentence into one of the following categories:

- 배송: 배송 속도, 포장, 상태와 관련된 내용
- 사용감: 사용 후 체감, 촉감, 착용감, 사용 경험
- 사이즈: 크기, 길이, 넓이
- 디자인: 색상, 모양, 스타일, 미적 요소
- 품질: 내구성, 마감, 소재, 제품 완성도

Rules:
- If no category matches, return "None".
- Return result in JSON format without backslashes or escape sequences.

Output:
{"sentence": "<input sentence>", "category": "사용감"}`

const keywordPrompt = `Extract 1-5 nouns only from the given sentence.
Exclude general emotion words like "좋아요", "만족", "최고".
If no obvious product-related noun exists, pick the most meaningful noun in the sentence.
Return result in strict JSON format without backslashes or escape sequences.

Output:
{"sentence": "<input sentence>", "keywords": ["배송"]}`

const sentimentPrompt = `Determine the sentiment of the given sentence.
Return "긍정" or "부정".
Return result in strict JSON format without backslashes or escape sequences.

Output:
{"sentence": "<input sentence>", "sentiment": "긍정"}`
