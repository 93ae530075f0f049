package quizgen

// quizPrompt is the single instruction sent with every generation call. It is
// deliberately not caller-configurable: what to quiz on is determined entirely
// by the uploaded lesson media, never by request text.
const quizPrompt = `Jesteś nauczycielem matematyki. Przeanalizuj dostarczone materiały (nagranie z lekcji oraz zdjęcia zadań/notatek).
Twoim zadaniem jest stworzyć quiz sprawdzający wiedzę z tej konkretnej lekcji.

Zasady:
1. Stwórz 3 pytania zamknięte (A, B, C, D).
2. Format wyjściowy musi być CZYSTYM JSONEM.
3. Język polski.
4. Pytania powinny nawiązywać do treści z nagrania i zdjęć.

Wzór JSON:
[
  {
    "pytanie": "Treść pytania...",
    "odpowiedzi": ["A", "B", "C", "D"],
    "poprawna": "A"
  }
]`
