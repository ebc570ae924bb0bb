package scaffold

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

var templates = template.Must(
	template.New("scaffold").Funcs(sprig.TxtFuncMap()).Parse(templateSource),
)

func render(name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("scaffold: rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

const templateSource = `
{{- define "readme" -}}
# {{ .Name | title }}

Generated with fluorite-flake.

## Stack

- Framework: {{ .Framework }}
{{- if ne .Database "none" }}
- Database: {{ .Database }}
{{- end }}
{{- if ne .ORM "none" }}
- ORM: {{ .ORM }}
{{- end }}
{{- if ne .Storage "none" }}
- Storage: {{ .Storage }}
{{- end }}
{{- if ne .Auth "none" }}
- Auth: {{ .Auth }}
{{- end }}
{{- if ne .Deployment "none" }}
- Deployment: {{ .Deployment }}
{{- end }}

## Getting started

{{ if .IsJS -}}
` + "```sh" + `
{{ .PackageManager }} install
{{ .PackageManager }} run dev
` + "```" + `
{{- else -}}
` + "```sh" + `
flutter pub get
flutter run
` + "```" + `
{{- end }}
{{ end }}

{{- define "gitignore" -}}
node_modules/
dist/
.next/
.env
.env.local
{{ if eq .Framework "flutter" -}}
.dart_tool/
build/
{{ end -}}
{{ if eq .Framework "tauri" -}}
src-tauri/target/
{{ end -}}
{{- end }}

{{- define "env" -}}
{{ if eq .Database "turso" -}}
TURSO_DATABASE_URL=libsql://{{ .Name }}-CHANGEME.turso.io
TURSO_AUTH_TOKEN=
{{ end -}}
{{ if eq .Deployment "vercel" -}}
VERCEL_TOKEN=
{{ end -}}
{{ if eq .Storage "vercel-blob" -}}
BLOB_READ_WRITE_TOKEN=
{{ end -}}
{{ if eq .Storage "aws-s3" -}}
AWS_REGION=us-east-1
S3_BUCKET={{ .Name }}-assets
{{ end -}}
{{ if eq .Auth "better-auth" -}}
BETTER_AUTH_SECRET=
BETTER_AUTH_URL=http://localhost:3000
{{ end -}}
{{ if eq .Auth "clerk" -}}
NEXT_PUBLIC_CLERK_PUBLISHABLE_KEY=
CLERK_SECRET_KEY=
{{ end -}}
{{- end }}

{{- define "tsconfig" -}}
{
  "compilerOptions": {
    "target": "ES2022",
    "module": "esnext",
    "moduleResolution": "bundler",
    "strict": true,
    "jsx": "preserve",
    "esModuleInterop": true,
    "skipLibCheck": true
  },
  "include": ["src", "app"],
  "exclude": ["node_modules"]
}
{{- end }}

{{- define "nextpage" -}}
export default function Home() {
  return (
    <main>
      <h1>{{ .Name | title }}</h1>
      <p>Generated with fluorite-flake.</p>
    </main>
  );
}
{{- end }}

{{- define "drizzleconfig" -}}
import { defineConfig } from "drizzle-kit";

export default defineConfig({
  schema: "./src/db/schema.ts",
  out: "./drizzle",
{{- if eq .Database "turso" }}
  dialect: "turso",
  dbCredentials: {
    url: process.env.TURSO_DATABASE_URL!,
    authToken: process.env.TURSO_AUTH_TOKEN,
  },
{{- else }}
  dialect: "sqlite",
{{- end }}
});
{{- end }}

{{- define "drizzleschema" -}}
import { sqliteTable, text, integer } from "drizzle-orm/sqlite-core";

export const users = sqliteTable("users", {
  id: integer("id").primaryKey({ autoIncrement: true }),
  name: text("name").notNull(),
  createdAt: integer("created_at", { mode: "timestamp" }).notNull(),
});
{{- end }}

{{- define "prismaschema" -}}
generator client {
  provider = "prisma-client-js"
}

datasource db {
  provider = "sqlite"
  url      = env("TURSO_DATABASE_URL")
}

model User {
  id        Int      @id @default(autoincrement())
  name      String
  createdAt DateTime @default(now())
}
{{- end }}

{{- define "wrangler" -}}
name = "{{ .Name }}"
compatibility_date = "2026-01-01"

{{ if eq .Database "d1" -}}
[[d1_databases]]
binding = "DB"
database_name = "{{ .Name }}"
database_id = "CHANGEME"
{{ end -}}
{{ if eq .Storage "cloudflare-r2" -}}
[[r2_buckets]]
binding = "ASSETS"
bucket_name = "{{ .Name }}-assets"
{{ end -}}
{{- end }}

{{- define "betterauth" -}}
import { betterAuth } from "better-auth";

export const auth = betterAuth({
  emailAndPassword: {
    enabled: true,
  },
});
{{- end }}

{{- define "vercel" -}}
{
  "$schema": "https://openapi.vercel.sh/vercel.json",
  "framework": "nextjs"
}
{{- end }}

{{- define "pubspec" -}}
name: {{ .Name | replace "-" "_" }}
description: Generated with fluorite-flake.
publish_to: "none"
version: 0.1.0

environment:
  sdk: ^3.6.0

dependencies:
  flutter:
    sdk: flutter

dev_dependencies:
  flutter_test:
    sdk: flutter
  flutter_lints: ^5.0.0

flutter:
  uses-material-design: true
{{- end }}

{{- define "fluttermain" -}}
import 'package:flutter/material.dart';

void main() => runApp(const App());

class App extends StatelessWidget {
  const App({super.key});

  @override
  Widget build(BuildContext context) {
    return MaterialApp(
      title: '{{ .Name | title }}',
      home: Scaffold(
        appBar: AppBar(title: const Text('{{ .Name | title }}')),
        body: const Center(child: Text('Generated with fluorite-flake.')),
      ),
    );
  }
}
{{- end }}

{{- define "tauriconf" -}}
{
  "$schema": "https://schema.tauri.app/config/2",
  "productName": "{{ .Name }}",
  "version": "0.1.0",
  "identifier": "com.example.{{ .Name | replace "-" "" }}",
  "build": {
    "beforeDevCommand": "{{ .PackageManager }} run dev",
    "beforeBuildCommand": "{{ .PackageManager }} run build",
    "devUrl": "http://localhost:5173",
    "frontendDist": "../dist"
  }
}
{{- end }}
`
