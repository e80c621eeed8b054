package vision

// extractionPrompt instructs the vision model to return structured shelf
// data. The schema mirrors what the parser expects; stock_level vocabulary
// is normalized again on our side because models drift.
const extractionPrompt = `You are a retail shelf auditor for Indian kirana stores.
Analyze this shelf photo and identify every distinct product you can see.

Return ONLY a JSON object with this exact structure, no other text:
{
  "products": [
    {
      "name": "product name as printed on packaging",
      "category": "one of: biscuits, snacks, beverages, staples, dairy, personal_care, household, instant_food, confectionery, other",
      "stock_level": "one of: out_of_stock, low, adequate, overstocked",
      "facing_count": 3,
      "confidence": 0.92
    }
  ],
  "shelf_observations": "one sentence on overall shelf condition"
}

Rules:
- facing_count is how many units face the customer for that product.
- stock_level is out_of_stock when a labeled slot or price tag has no units behind it.
- confidence is your certainty in the identification, between 0 and 1.
- Include visibly empty labeled slots as products with stock_level out_of_stock and facing_count 0.
- If the photo shows no retail shelf at all, return {"products": []}.`
